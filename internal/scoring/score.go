// Package scoring computes the per-tenant ease score: a 0-100 difficulty figure
// where lower means easier to migrate early.
//
// Every dimension is min-max normalised against the tenant population passed
// to Compute, so scores only compare within one project snapshot.
package scoring

import (
	"sort"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
)

// Midpoint is the normalised value of a dimension with no spread.
const Midpoint = 50.0

type DimensionScore struct {
	Dimension    Dimension `json:"dimension"`
	Raw          float64   `json:"raw"`
	Normalized   float64   `json:"normalized"`
	Weight       float64   `json:"weight"`
	Contribution float64   `json:"contribution"`
}

// Breakdown is the request-scoped ease score of one tenant.
type Breakdown struct {
	TenantID   string           `json:"tenant_id"`
	Score      float64          `json:"score"`
	Dimensions []DimensionScore `json:"dimensions"`
}

// Contribution returns the contribution of one dimension.
func (b Breakdown) Contribution(d Dimension) float64 {
	for _, ds := range b.Dimensions {
		if ds.Dimension == d {
			return ds.Contribution
		}
	}
	return 0
}

// RawValue extracts the "more is harder" raw value of a dimension.
func RawValue(agg inventory.TenantAggregates, d Dimension) float64 {
	switch d {
	case DimensionVMCount:
		return float64(agg.VMCount)
	case DimensionDisk:
		return agg.TotalUsedDiskGB
	case DimensionRisk:
		return agg.AvgRisk
	case DimensionOSSupport:
		return 1 - agg.OSSupportRate
	case DimensionNetworks:
		return float64(agg.NetworkCount)
	case DimensionDependencies:
		return float64(agg.CrossTenantDeps)
	case DimensionColdRatio:
		return agg.ColdRatio
	case DimensionUnconfirmed:
		return agg.UnconfirmedRatio
	}
	return 0
}

type span struct {
	min, max float64
}

func (s span) normalize(v float64) float64 {
	width := s.max - s.min
	if width <= 0 {
		return Midpoint
	}
	return (v - s.min) / width * 100
}

// Compute scores every tenant in aggs and returns the breakdowns sorted from
// easiest to hardest. Ties keep tenant id order.
func Compute(aggs []inventory.TenantAggregates, w Weights) ([]Breakdown, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if len(aggs) == 0 {
		return []Breakdown{}, nil
	}

	spans := make(map[Dimension]span, len(Dimensions))
	for _, d := range Dimensions {
		s := span{min: RawValue(aggs[0], d), max: RawValue(aggs[0], d)}
		for _, agg := range aggs[1:] {
			v := RawValue(agg, d)
			if v < s.min {
				s.min = v
			}
			if v > s.max {
				s.max = v
			}
		}
		spans[d] = s
	}

	out := make([]Breakdown, 0, len(aggs))
	for _, agg := range aggs {
		b := Breakdown{TenantID: agg.TenantID, Dimensions: make([]DimensionScore, 0, len(Dimensions))}
		for _, d := range Dimensions {
			raw := RawValue(agg, d)
			normalized := spans[d].normalize(raw)
			contribution := normalized * w.Of(d) / 100
			b.Dimensions = append(b.Dimensions, DimensionScore{
				Dimension:    d,
				Raw:          raw,
				Normalized:   normalized,
				Weight:       w.Of(d),
				Contribution: contribution,
			})
			b.Score += contribution
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out, nil
}

// Index maps tenant id to score.
func Index(breakdowns []Breakdown) map[string]float64 {
	out := make(map[string]float64, len(breakdowns))
	for _, b := range breakdowns {
		out[b.TenantID] = b.Score
	}
	return out
}
