package backtest

import "github.com/schollz/progressbar/v3"

func (e *Engine) progressBar(bars int) *progressbar.ProgressBar {
	if !e.opts.ShowProgress {
		return nil
	}
	return progressbar.NewOptions(bars,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
