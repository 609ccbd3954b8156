package scoring

import (
	"fmt"
	"math"
)

// Dimension names one axis of the ease score.
type Dimension string

const (
	DimensionVMCount      Dimension = "vm_count"
	DimensionDisk         Dimension = "used_disk"
	DimensionRisk         Dimension = "avg_risk"
	DimensionOSSupport    Dimension = "os_support_shortfall"
	DimensionNetworks     Dimension = "network_count"
	DimensionDependencies Dimension = "cross_tenant_deps"
	DimensionColdRatio    Dimension = "cold_ratio"
	DimensionUnconfirmed  Dimension = "unconfirmed_mappings"
)

// Dimensions is the fixed evaluation order. Scores are summed in this order.
var Dimensions = []Dimension{
	DimensionVMCount,
	DimensionDisk,
	DimensionRisk,
	DimensionOSSupport,
	DimensionNetworks,
	DimensionDependencies,
	DimensionColdRatio,
	DimensionUnconfirmed,
}

const weightSumTolerance = 1e-6

// Weights are the eight caller supplied dimension weights. They must be
// non-negative and sum to 100.
type Weights struct {
	VMCount      float64 `json:"vm_count" yaml:"vm_count"`
	Disk         float64 `json:"disk" yaml:"disk"`
	Risk         float64 `json:"risk" yaml:"risk"`
	OSSupport    float64 `json:"os_support" yaml:"os_support"`
	Networks     float64 `json:"networks" yaml:"networks"`
	Dependencies float64 `json:"dependencies" yaml:"dependencies"`
	ColdRatio    float64 `json:"cold_ratio" yaml:"cold_ratio"`
	Unconfirmed  float64 `json:"unconfirmed" yaml:"unconfirmed"`
}

func DefaultWeights() Weights {
	return Weights{
		VMCount:      15,
		Disk:         20,
		Risk:         20,
		OSSupport:    10,
		Networks:     10,
		Dependencies: 10,
		ColdRatio:    10,
		Unconfirmed:  5,
	}
}

// Of returns the weight of a dimension.
func (w Weights) Of(d Dimension) float64 {
	switch d {
	case DimensionVMCount:
		return w.VMCount
	case DimensionDisk:
		return w.Disk
	case DimensionRisk:
		return w.Risk
	case DimensionOSSupport:
		return w.OSSupport
	case DimensionNetworks:
		return w.Networks
	case DimensionDependencies:
		return w.Dependencies
	case DimensionColdRatio:
		return w.ColdRatio
	case DimensionUnconfirmed:
		return w.Unconfirmed
	}
	return 0
}

func (w Weights) Sum() float64 {
	sum := 0.0
	for _, d := range Dimensions {
		sum += w.Of(d)
	}
	return sum
}

func (w Weights) Validate() error {
	for _, d := range Dimensions {
		v := w.Of(d)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return NewErrInvalidWeights(fmt.Sprintf("weight %s must be a non-negative number, got %v", d, v))
		}
	}
	if sum := w.Sum(); math.Abs(sum-100) > weightSumTolerance {
		return NewErrInvalidWeights(fmt.Sprintf("weights must sum to 100, got %.4f", sum))
	}
	return nil
}

type ErrInvalidWeights struct {
	error
}

func NewErrInvalidWeights(message string) *ErrInvalidWeights {
	return &ErrInvalidWeights{fmt.Errorf("invalid ease score weights: %s", message)}
}
