// Package estimator turns inventory facts and project settings into the two
// duration models of a migration: the transfer-bandwidth model and the
// scheduling-slot model. Both are reported side by side and never merged.
package estimator

import (
	"github.com/kubev2v/migration-wave-planner/internal/estimation"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/calculators"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

// Estimator runs the calculator engine with one resolved project configuration.
type Estimator struct {
	cfg      plan.ProjectConfig
	engine   *estimation.Engine
	advisory *estimation.Engine

	transfer *calculators.TransferBandwidth
	cutover  *calculators.Cutover
	slot     *calculators.SchedulingSlot
	checks   *calculators.PostMigrationChecks
}

func New(cfg plan.ProjectConfig) *Estimator {
	e := &Estimator{
		cfg: cfg,
		transfer: calculators.NewTransferBandwidth(
			calculators.WithEfficiencyFactor(cfg.EfficiencyFactor),
			calculators.WithOverheadFactor(cfg.OverheadFactor),
		),
		cutover: calculators.NewCutover(
			calculators.WithCutoverUnitHours(cfg.CutoverUnitHours),
			calculators.WithAgentSlots(cfg.AgentSlots),
		),
		slot: calculators.NewSchedulingSlot(
			calculators.WithVMsPerDayPerSlot(cfg.VMsPerDayPerSlot),
			calculators.WithSlotCount(cfg.AgentSlots),
			calculators.WithWorkingHoursPerDay(cfg.WorkingHoursPerDay),
		),
		checks: calculators.NewPostMigrationChecks(),
	}
	e.engine = estimation.NewEngine(e.transfer, e.cutover, e.slot)
	e.advisory = estimation.NewEngine(e.checks)
	return e
}

// ForCohort returns an estimator with the cohort's resource overrides applied.
// A nil cohort or one without overrides returns the receiver.
func (e *Estimator) ForCohort(c *plan.Cohort) *Estimator {
	if c == nil || c.Overrides.IsZero() {
		return e
	}
	return New(e.cfg.WithOverrides(c.Overrides))
}

func (e *Estimator) Config() plan.ProjectConfig {
	return e.cfg
}

// VMsPerDay is the slot model throughput ceiling.
func (e *Estimator) VMsPerDay() float64 {
	return e.cfg.VMsPerDayPerSlot * float64(e.cfg.AgentSlots)
}

// VMDuration is the per-VM split by effective migration mode.
type VMDuration struct {
	VMID          string                  `json:"vm_id"`
	TenantID      string                  `json:"tenant_id"`
	Mode          inventory.MigrationMode `json:"mode"`
	Phase1Hours   float64                 `json:"phase1_hours"`
	CopyHours     float64                 `json:"copy_hours"`
	CutoverHours  float64                 `json:"cutover_hours"`
	TotalHours    float64                 `json:"total_hours"`
	DowntimeHours float64                 `json:"downtime_hours"`
}

// EstimateVM splits the VM's duration. A warm VM copies in the background and
// is only down for the cutover; a cold VM is down for the copy and the cutover.
func (e *Estimator) EstimateVM(vm inventory.VM) VMDuration {
	transfer := calculators.TransferHours(vm.UsedDiskGB, e.cfg.LinkBandwidthMbps, e.cfg.EfficiencyFactor, e.cfg.OverheadFactor)
	d := VMDuration{
		VMID:         vm.ID,
		TenantID:     vm.TenantID,
		Mode:         vm.EffectiveMode(),
		CutoverHours: e.cfg.CutoverUnitHours,
		TotalHours:   transfer + e.cfg.CutoverUnitHours,
	}
	if d.Mode == inventory.ModeCold {
		d.CopyHours = transfer
		d.DowntimeHours = transfer + e.cfg.CutoverUnitHours
	} else {
		d.Phase1Hours = transfer
		d.DowntimeHours = e.cfg.CutoverUnitHours
	}
	return d
}
