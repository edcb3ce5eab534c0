package client

import "time"

// StatusKind is the state of the last refresh.
type StatusKind int

const (
	Idle StatusKind = iota
	NoSymbols
	Loading
	Updated
	Failed
	Throttled
)

// Status is the price status line.
type Status struct {
	Kind StatusKind
	// At is the last successful update; zero when there was none.
	At time.Time
}

// TimeLayout formats status times.
const TimeLayout = "15:04:05"

func (s Status) String() string {
	switch s.Kind {
	case NoSymbols:
		return "Prices: add symbols to load"
	case Loading:
		return "Prices: loading..."
	case Updated:
		return "Prices: updated " + s.At.Local().Format(TimeLayout)
	case Failed:
		return "Prices: failed to load"
	case Throttled:
		if s.At.IsZero() {
			return "Prices: throttled"
		}
		return "Prices: throttled, last updated " + s.At.Local().Format(TimeLayout)
	default:
		return "Prices: not loaded"
	}
}
