package export

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

const (
	SheetSummary  = "Summary"
	SheetCohorts  = "Cohorts"
	SheetWaves    = "Waves"
	SheetVMs      = "VMs"
	SheetSchedule = "Schedule"
)

// table is one sheet of the workbook and one section of the CSV document.
type table struct {
	name   string
	header []string
	rows   [][]string
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func btoa(b bool) string {
	return strconv.FormatBool(b)
}

func buildTables(data *PlanData) []table {
	return []table{
		summaryTable(data),
		cohortTable(data),
		waveTable(data),
		vmTable(data),
		scheduleTable(data),
	}
}

func summaryTable(data *PlanData) table {
	t := table{name: SheetSummary, header: []string{"Metric", "Value"}}
	add := func(k, v string) { t.rows = append(t.rows, []string{k, v}) }

	add("Project", data.ProjectName)
	add("Project ID", data.ProjectID.String())
	add("Snapshot Version", itoa(data.SnapshotVersion))
	add("Generated", data.GeneratedAt.UTC().Format(time.RFC3339))
	if data.Inventory != nil {
		add("Tenants In Scope", itoa(len(data.Inventory.InScopeTenants())))
		add("VMs In Scope", itoa(len(data.Inventory.InScopeVMs())))
	}
	add("Cohorts", itoa(len(data.Cohorts)))
	add("Waves", itoa(len(data.Waves)))
	if e := data.Estimate; e != nil {
		add("Bandwidth Model Days", ftoa(e.Totals.BandwidthDays))
		add("Slot Model Days", ftoa(e.Totals.SlotDays))
		add("Deadline Days", ftoa(e.Totals.DeadlineDays))
		add("Models Disagree", btoa(e.Totals.ModelsDisagree))
		add("Post-Migration Check Hours", ftoa(e.PostMigrationHours))
		add("Schedule Days", itoa(e.Schedule.TotalDays))
	}
	add("Completion %", ftoa(data.Funnel.CompletionPct))
	for _, s := range inventory.AllStatuses {
		add("VMs "+string(s), itoa(data.Funnel.Counts[s]))
	}
	return t
}

func cohortTable(data *PlanData) table {
	t := table{
		name:   SheetCohorts,
		header: []string{"Order", "Cohort", "ID", "Status", "Predecessor", "Tenants", "VMs", "Bandwidth Days", "Slot Days"},
	}

	members := make(map[string][]string)
	if data.Inventory != nil {
		for _, tenant := range data.Inventory.Tenants {
			if id, ok := tenant.Cohort.ID(); ok {
				members[id] = append(members[id], tenant.ID)
			}
		}
	}
	groups := make(map[string][2]string)
	vms := make(map[string]int)
	if data.Estimate != nil {
		for _, g := range data.Estimate.Groups {
			groups[g.CohortID] = [2]string{ftoa(g.Bandwidth.Days), ftoa(g.Slot.Days)}
			vms[g.CohortID] = g.VMCount
		}
	}

	for _, c := range plan.SortCohorts(data.Cohorts) {
		tenants := members[c.ID]
		sort.Strings(tenants)
		days := groups[c.ID]
		t.rows = append(t.rows, []string{
			itoa(c.Order), c.Name, c.ID, string(c.Status), c.PredecessorID,
			strings.Join(tenants, " "), itoa(vms[c.ID]), days[0], days[1],
		})
	}
	return t
}

func waveTable(data *PlanData) table {
	t := table{
		name:   SheetWaves,
		header: []string{"Order", "Wave", "ID", "Cohort", "State", "Strategy", "VMs", "Started", "Completed"},
	}
	waves := append([]plan.Wave(nil), data.Waves...)
	sort.SliceStable(waves, func(i, j int) bool { return waves[i].Order < waves[j].Order })
	for _, w := range waves {
		t.rows = append(t.rows, []string{
			itoa(w.Order), w.Name, w.ID.String(), w.CohortID, string(w.State), w.Strategy,
			itoa(len(w.VMs)), timeCell(w.StartedAt), timeCell(w.CompletedAt),
		})
	}
	return t
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func vmTable(data *PlanData) table {
	t := table{
		name:   SheetVMs,
		header: []string{"VM", "Name", "Tenant", "Cohort", "Wave", "Mode", "Status", "Used Disk GB", "Total Hours", "Downtime Hours"},
	}
	if data.Inventory == nil {
		return t
	}

	cohortOf := make(map[string]string)
	for _, tenant := range data.Inventory.Tenants {
		if id, ok := tenant.Cohort.ID(); ok {
			cohortOf[tenant.ID] = id
		}
	}
	waveOf := make(map[string]string)
	for _, w := range data.Waves {
		if w.State == plan.WaveCancelled {
			continue
		}
		for _, vm := range w.VMs {
			waveOf[vm.VMID] = w.Name
		}
	}
	type hours struct{ total, downtime float64 }
	durations := make(map[string]hours)
	if data.Estimate != nil {
		for _, d := range data.Estimate.VMs {
			durations[d.VMID] = hours{d.TotalHours, d.DowntimeHours}
		}
	}

	for _, vm := range data.Inventory.InScopeVMs() {
		h := durations[vm.ID]
		t.rows = append(t.rows, []string{
			vm.ID, vm.Name, vm.TenantID, cohortOf[vm.TenantID], waveOf[vm.ID],
			string(vm.EffectiveMode()), string(vm.CurrentStatus()),
			ftoa(vm.UsedDiskGB), ftoa(h.total), ftoa(h.downtime),
		})
	}
	return t
}

func scheduleTable(data *PlanData) table {
	t := table{name: SheetSchedule, header: []string{"Day", "Cohort Order", "Cohort", "Tenant", "VM"}}
	if data.Estimate == nil {
		return t
	}
	for _, day := range data.Estimate.Schedule.Days {
		for _, e := range day.Entries {
			t.rows = append(t.rows, []string{itoa(day.Day), itoa(day.CohortOrder), day.CohortID, e.TenantID, e.VMID})
		}
	}
	return t
}
