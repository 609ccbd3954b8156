package plan

import (
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
)

const (
	DefaultLinkBandwidthMbps     = 1000.0
	DefaultEfficiencyFactor      = 0.75
	DefaultOverheadFactor        = 1.14
	DefaultCutoverUnitHours      = 0.25
	DefaultAgentSlots            = 1
	DefaultVMsPerDayPerSlot      = 20.0
	DefaultWorkingHoursPerDay    = 8.0
	DefaultCPUOvercommit         = "1:4"
	DefaultMemoryOvercommit      = "1:1"
	DefaultPeakBufferPct         = 15.0
	DefaultPerfCoverageThreshold = 50.0
	DefaultWaveSize              = 25
)

// OvercommitProfile holds over-commit ratios written as "1:N".
type OvercommitProfile struct {
	CPU    string `json:"cpu" yaml:"cpu" validate:"required,cpu_overcommit"`
	Memory string `json:"memory" yaml:"memory" validate:"required,memory_overcommit"`
}

// ResourceProfile carries the per-cohort overrides. Nil fields fall back to the
// project configuration.
type ResourceProfile struct {
	Overcommit *OvercommitProfile `json:"overcommit,omitempty" yaml:"overcommit,omitempty" validate:"omitempty"`
	AgentSlots *int               `json:"agent_slots,omitempty" yaml:"agent_slots,omitempty" validate:"omitempty,gt=0"`
}

func (p ResourceProfile) IsZero() bool {
	return p.Overcommit == nil && p.AgentSlots == nil
}

// ProjectConfig is every knob the planning engines read. It is passed
// explicitly on each call; there is no process-wide mutable copy.
type ProjectConfig struct {
	LinkBandwidthMbps  float64 `json:"link_bandwidth_mbps" yaml:"link_bandwidth_mbps" validate:"gt=0"`
	EfficiencyFactor   float64 `json:"efficiency_factor" yaml:"efficiency_factor" validate:"gt=0,lte=1"`
	OverheadFactor     float64 `json:"overhead_factor" yaml:"overhead_factor" validate:"gte=1"`
	CutoverUnitHours   float64 `json:"cutover_unit_hours" yaml:"cutover_unit_hours" validate:"gte=0"`
	AgentSlots         int     `json:"agent_slots" yaml:"agent_slots" validate:"gt=0"`
	VMsPerDayPerSlot   float64 `json:"vms_per_day_per_slot" yaml:"vms_per_day_per_slot" validate:"gt=0"`
	WorkingHoursPerDay float64 `json:"working_hours_per_day" yaml:"working_hours_per_day" validate:"gt=0,lte=24"`
	// DeadlineDays of zero means no deadline.
	DeadlineDays float64 `json:"deadline_days" yaml:"deadline_days" validate:"gte=0"`

	Overcommit            OvercommitProfile `json:"overcommit" yaml:"overcommit"`
	PeakBufferPct         float64           `json:"peak_buffer_pct" yaml:"peak_buffer_pct" validate:"gte=0,lte=100"`
	PerfCoverageThreshold float64           `json:"perf_coverage_threshold_pct" yaml:"perf_coverage_threshold_pct" validate:"gte=0,lte=100"`

	WaveSize  int               `json:"wave_size" yaml:"wave_size" validate:"gt=0"`
	Weights   scoring.Weights   `json:"weights" yaml:"weights"`
	Preflight []CheckDefinition `json:"preflight,omitempty" yaml:"preflight,omitempty" validate:"dive"`
}

func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		LinkBandwidthMbps:     DefaultLinkBandwidthMbps,
		EfficiencyFactor:      DefaultEfficiencyFactor,
		OverheadFactor:        DefaultOverheadFactor,
		CutoverUnitHours:      DefaultCutoverUnitHours,
		AgentSlots:            DefaultAgentSlots,
		VMsPerDayPerSlot:      DefaultVMsPerDayPerSlot,
		WorkingHoursPerDay:    DefaultWorkingHoursPerDay,
		Overcommit:            OvercommitProfile{CPU: DefaultCPUOvercommit, Memory: DefaultMemoryOvercommit},
		PeakBufferPct:         DefaultPeakBufferPct,
		PerfCoverageThreshold: DefaultPerfCoverageThreshold,
		WaveSize:              DefaultWaveSize,
		Weights:               scoring.DefaultWeights(),
		Preflight:             DefaultPreflightCatalogue(),
	}
}

// WithOverrides returns a copy with the cohort's resource profile applied.
func (c ProjectConfig) WithOverrides(p ResourceProfile) ProjectConfig {
	out := c
	if p.Overcommit != nil {
		out.Overcommit = *p.Overcommit
	}
	if p.AgentSlots != nil {
		out.AgentSlots = *p.AgentSlots
	}
	out.Preflight = append([]CheckDefinition(nil), c.Preflight...)
	return out
}

// Catalogue returns the configured pre-flight catalogue, or the default one
// when none is configured.
func (c ProjectConfig) Catalogue() []CheckDefinition {
	if len(c.Preflight) == 0 {
		return DefaultPreflightCatalogue()
	}
	return c.Preflight
}
