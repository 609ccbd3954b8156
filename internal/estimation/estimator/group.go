package estimator

import (
	"github.com/kubev2v/migration-wave-planner/internal/estimation"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/calculators"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

type BandwidthModel struct {
	TransferHours float64 `json:"transfer_hours"`
	CutoverHours  float64 `json:"cutover_hours"`
	TotalHours    float64 `json:"total_hours"`
	Days          float64 `json:"days"`
	Reason        string  `json:"reason,omitempty"`
}

type SlotModel struct {
	VMsPerDay float64 `json:"vms_per_day"`
	Days      float64 `json:"days"`
	Reason    string  `json:"reason,omitempty"`
}

// GroupEstimate holds both models for one cohort, or for the implicit group
// when CohortID is empty.
type GroupEstimate struct {
	CohortID    string   `json:"cohort_id,omitempty"`
	CohortOrder int      `json:"cohort_order"`
	Unassigned  bool     `json:"unassigned,omitempty"`
	TenantIDs   []string `json:"tenant_ids"`
	VMCount     int      `json:"vm_count"`
	UsedDiskGB  float64  `json:"used_disk_gb"`

	Bandwidth BandwidthModel `json:"bandwidth"`
	Slot      SlotModel      `json:"slot"`

	DeadlineDays   float64 `json:"deadline_days,omitempty"`
	BandwidthFits  bool    `json:"bandwidth_fits"`
	SlotFits       bool    `json:"slot_fits"`
	ModelsDisagree bool    `json:"models_disagree"`

	// PostMigrationHours is advisory and not part of either model.
	PostMigrationHours float64  `json:"post_migration_hours"`
	Errors             []string `json:"errors,omitempty"`

	vms []inventory.VM
}

func (e *Estimator) params(tenants int, vms []inventory.VM) []estimation.Param {
	usedGB := 0.0
	for _, vm := range vms {
		usedGB += vm.UsedDiskGB
	}
	return []estimation.Param{
		{Key: calculators.ParamUsedDiskGB, Value: usedGB},
		{Key: calculators.ParamLinkBandwidthMbps, Value: e.cfg.LinkBandwidthMbps},
		{Key: calculators.ParamEfficiencyFactor, Value: e.cfg.EfficiencyFactor},
		{Key: calculators.ParamOverheadFactor, Value: e.cfg.OverheadFactor},
		{Key: calculators.ParamTenantCount, Value: tenants},
		{Key: calculators.ParamCutoverUnitHours, Value: e.cfg.CutoverUnitHours},
		{Key: calculators.ParamAgentSlots, Value: e.cfg.AgentSlots},
		{Key: calculators.ParamVMCount, Value: len(vms)},
		{Key: calculators.ParamVMsPerDayPerSlot, Value: e.cfg.VMsPerDayPerSlot},
		{Key: calculators.ParamWorkingHoursPerDay, Value: e.cfg.WorkingHoursPerDay},
	}
}

// EstimateGroup runs both models over a candidate grouping of tenants.
func (e *Estimator) EstimateGroup(cohortID string, order int, tenants []inventory.Tenant, vms []inventory.VM) GroupEstimate {
	g := GroupEstimate{
		CohortID:     cohortID,
		CohortOrder:  order,
		TenantIDs:    make([]string, 0, len(tenants)),
		VMCount:      len(vms),
		DeadlineDays: e.cfg.DeadlineDays,
		vms:          vms,
	}
	for _, t := range tenants {
		g.TenantIDs = append(g.TenantIDs, t.ID)
	}
	for _, vm := range vms {
		g.UsedDiskGB += vm.UsedDiskGB
	}

	params := e.params(len(tenants), vms)
	results := e.engine.Run(params)
	for _, name := range e.engine.Names() {
		if res := results[name]; res.Failed() {
			g.Errors = append(g.Errors, name+": "+res.Err.Error())
		}
	}

	transfer := results[e.transfer.Name()]
	cutover := results[e.cutover.Name()]
	slot := results[e.slot.Name()]

	g.Bandwidth = BandwidthModel{
		TransferHours: transfer.Hours(),
		CutoverHours:  cutover.Hours(),
		TotalHours:    transfer.Hours() + cutover.Hours(),
		Reason:        transfer.Reason + "; " + cutover.Reason,
	}
	g.Slot = SlotModel{VMsPerDay: e.VMsPerDay(), Reason: slot.Reason}
	if e.cfg.WorkingHoursPerDay > 0 {
		g.Bandwidth.Days = g.Bandwidth.TotalHours / e.cfg.WorkingHoursPerDay
		g.Slot.Days = slot.Hours() / e.cfg.WorkingHoursPerDay
	}

	if advisory, ok := e.advisory.Run(params)[e.checks.Name()]; ok && !advisory.Failed() {
		g.PostMigrationHours = advisory.Hours()
	}

	g.BandwidthFits = fits(g.Bandwidth.Days, g.DeadlineDays)
	g.SlotFits = fits(g.Slot.Days, g.DeadlineDays)
	g.ModelsDisagree = g.BandwidthFits != g.SlotFits
	return g
}

func fits(days, deadline float64) bool {
	return deadline <= 0 || days <= deadline
}

// Totals sums the cohort groups; cohorts run one after another so days add up.
type Totals struct {
	BandwidthDays  float64 `json:"bandwidth_days"`
	SlotDays       float64 `json:"slot_days"`
	DeadlineDays   float64 `json:"deadline_days,omitempty"`
	BandwidthFits  bool    `json:"bandwidth_fits"`
	SlotFits       bool    `json:"slot_fits"`
	ModelsDisagree bool    `json:"models_disagree"`
}

type ProjectEstimate struct {
	Groups             []GroupEstimate `json:"groups"`
	Totals             Totals          `json:"totals"`
	PostMigrationHours float64         `json:"post_migration_hours"`
	Schedule           Schedule        `json:"schedule"`
	VMs                []VMDuration    `json:"vms"`
}

// pending drops VMs that already reached a terminal status.
func pending(vms []inventory.VM) []inventory.VM {
	out := make([]inventory.VM, 0, len(vms))
	for _, vm := range vms {
		if !vm.CurrentStatus().Terminal() {
			out = append(out, vm)
		}
	}
	return out
}

// EstimateProject estimates every cohort in order plus the unassigned
// tenants. With no cohorts the whole project is one implicit group that is
// counted and scheduled; with cohorts the unassigned group is reported but
// neither counted in the totals nor scheduled.
func (e *Estimator) EstimateProject(s *inventory.Snapshot, cohorts []plan.Cohort) *ProjectEstimate {
	cohorts = plan.SortCohorts(cohorts)
	known := make(map[string]bool, len(cohorts))
	for _, c := range cohorts {
		known[c.ID] = true
	}

	byTenant := s.VMsByTenant()
	byCohort := make(map[string][]inventory.Tenant)
	var unassigned []inventory.Tenant
	for _, t := range s.InScopeTenants() {
		if id, ok := t.Cohort.ID(); ok && known[id] {
			byCohort[id] = append(byCohort[id], t)
			continue
		}
		unassigned = append(unassigned, t)
	}

	collect := func(tenants []inventory.Tenant) []inventory.VM {
		var vms []inventory.VM
		for _, t := range tenants {
			vms = append(vms, pending(byTenant[t.ID])...)
		}
		return vms
	}

	out := &ProjectEstimate{Totals: Totals{DeadlineDays: e.cfg.DeadlineDays}}
	var scheduled []ScheduleGroup
	for i := range cohorts {
		c := &cohorts[i]
		tenants := byCohort[c.ID]
		ce := e.ForCohort(c)
		g := ce.EstimateGroup(c.ID, c.Order, tenants, collect(tenants))
		out.Groups = append(out.Groups, g)
		out.Totals.BandwidthDays += g.Bandwidth.Days
		out.Totals.SlotDays += g.Slot.Days
		out.PostMigrationHours += g.PostMigrationHours
		scheduled = append(scheduled, scheduleGroup(g, tenants, ce.VMsPerDay()))
	}

	if len(unassigned) > 0 || len(cohorts) == 0 {
		g := e.EstimateGroup("", 0, unassigned, collect(unassigned))
		if len(cohorts) == 0 {
			out.Totals.BandwidthDays += g.Bandwidth.Days
			out.Totals.SlotDays += g.Slot.Days
			out.PostMigrationHours += g.PostMigrationHours
			scheduled = append(scheduled, scheduleGroup(g, unassigned, e.VMsPerDay()))
		} else {
			g.Unassigned = true
		}
		out.Groups = append(out.Groups, g)
	}

	out.Totals.BandwidthFits = fits(out.Totals.BandwidthDays, e.cfg.DeadlineDays)
	out.Totals.SlotFits = fits(out.Totals.SlotDays, e.cfg.DeadlineDays)
	out.Totals.ModelsDisagree = out.Totals.BandwidthFits != out.Totals.SlotFits

	out.Schedule = BuildDailySchedule(scheduled, e.VMsPerDay())
	if len(cohorts) > 0 {
		for _, vm := range collect(unassigned) {
			out.Schedule.Unscheduled = append(out.Schedule.Unscheduled, vm.ID)
		}
	}

	for _, g := range out.Groups {
		ge := e
		for i := range cohorts {
			if cohorts[i].ID == g.CohortID {
				ge = e.ForCohort(&cohorts[i])
			}
		}
		for _, vm := range g.vms {
			out.VMs = append(out.VMs, ge.EstimateVM(vm))
		}
	}
	return out
}

func scheduleGroup(g GroupEstimate, tenants []inventory.Tenant, vmsPerDay float64) ScheduleGroup {
	sg := ScheduleGroup{CohortID: g.CohortID, CohortOrder: g.CohortOrder, VMsPerDay: vmsPerDay}
	idx := make(map[string]int, len(tenants))
	for _, t := range tenants {
		idx[t.ID] = len(sg.Tenants)
		sg.Tenants = append(sg.Tenants, TenantVMs{TenantID: t.ID})
	}
	for _, vm := range g.vms {
		i, ok := idx[vm.TenantID]
		if !ok {
			continue
		}
		sg.Tenants[i].VMIDs = append(sg.Tenants[i].VMIDs, vm.ID)
	}
	return sg
}
