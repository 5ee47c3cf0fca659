package journal

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_id, instrument, time, kind, units, price, realized_pl, capital, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Instrument, t.Time, t.Kind,
		t.Units, t.Price, t.RealizedPL, t.Capital, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, time, equity)
		VALUES (?, ?, ?)`,
		e.RunID, e.Time, e.Equity,
	)
	return err
}

func (j *SQLiteJournal) RecordRun(r RunSummary) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, instrument, strategy, sizer, start_time, end_time, bars, trades,
		 start_capital, final_capital, total_return, sharpe, max_drawdown, win_rate, profit_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Instrument, r.Strategy, r.Sizer, r.Start, r.End,
		r.Bars, r.Trades, r.StartCapital, r.FinalCapital, r.TotalReturn,
		r.Sharpe, r.MaxDrawdown, r.WinRate, r.ProfitFactor,
	)
	return err
}

// GetRun loads one run summary by ID.
func (j *SQLiteJournal) GetRun(ctx context.Context, runID string) (RunSummary, error) {
	var r RunSummary
	err := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, instrument, strategy, sizer, start_time, end_time, bars, trades,
		       start_capital, final_capital, total_return, sharpe, max_drawdown, win_rate, profit_factor
		FROM runs WHERE run_id = ?`, runID,
	).Scan(
		&r.RunID, &r.Created, &r.Instrument, &r.Strategy, &r.Sizer, &r.Start, &r.End,
		&r.Bars, &r.Trades, &r.StartCapital, &r.FinalCapital, &r.TotalReturn,
		&r.Sharpe, &r.MaxDrawdown, &r.WinRate, &r.ProfitFactor,
	)
	return r, err
}

// ListTradesByRun returns a run's fills in execution order.
func (j *SQLiteJournal) ListTradesByRun(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, trade_id, instrument, time, kind, units, price, realized_pl, capital, reason
		FROM trades WHERE run_id = ? ORDER BY trade_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var reason sql.NullString
		if err := rows.Scan(
			&t.RunID, &t.TradeID, &t.Instrument, &t.Time, &t.Kind,
			&t.Units, &t.Price, &t.RealizedPL, &t.Capital, &reason,
		); err != nil {
			return nil, err
		}
		t.Reason = reason.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquityByRun returns a run's equity curve in time order.
func (j *SQLiteJournal) ListEquityByRun(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, time, equity
		FROM equity WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
