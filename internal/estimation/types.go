package estimation

import (
	"time"
)

// Calculator encapsulates one specific part of the estimation (e.g. "transfer bandwidth", "cutover").
type Calculator interface {
	// Name returns the human-readable name of this calculator, used as the key in Engine results.
	Name() string
	// Keys returns the list of Param keys this calculator depends on.
	Keys() []string
	// Calculate runs the estimation using the provided params and returns an Estimation or an error.
	Calculate(params map[string]Param) (Estimation, error)
}

// Param represents an input for a Calculator (can be either user supplied or derived from inventory)
type Param struct {
	Key   string      // Unique identifier (e.g., "link_bandwidth_mbps")
	Value interface{} // The actual value (e.g., 1000, 0.75)
}

// Estimation the result of a Calculator calculation
type Estimation struct {
	Duration time.Duration
	Reason   string
	// Err is set when the calculator could not produce a result.
	Err error `json:"-"`
}

func (e Estimation) Hours() float64 {
	return e.Duration.Hours()
}

func (e Estimation) Failed() bool {
	return e.Err != nil
}
