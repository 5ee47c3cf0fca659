package market

// Signal is a directional trading instruction for one bar.
type Signal int8

const (
	Short Signal = -1
	Flat  Signal = 0
	Long  Signal = +1
)

func (s Signal) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	case Flat:
		return "FLAT"
	default:
		return "INVALID"
	}
}

// Valid reports whether the signal is one of the three defined values.
// Strategies are external collaborators; the engine degrades anything
// else to Flat rather than crashing the run.
func (s Signal) Valid() bool {
	return s == Short || s == Flat || s == Long
}
