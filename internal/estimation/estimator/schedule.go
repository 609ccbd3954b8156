package estimator

import (
	"math"
	"sort"
)

type TenantVMs struct {
	TenantID string
	VMIDs    []string
}

// ScheduleGroup is one cohort's VMs, grouped by tenant. VMsPerDay of zero uses
// the schedule default.
type ScheduleGroup struct {
	CohortID    string
	CohortOrder int
	VMsPerDay   float64
	Tenants     []TenantVMs
}

type ScheduleEntry struct {
	VMID     string `json:"vm_id"`
	TenantID string `json:"tenant_id"`
}

type ScheduleDay struct {
	Day         int             `json:"day"`
	CohortID    string          `json:"cohort_id,omitempty"`
	CohortOrder int             `json:"cohort_order"`
	Entries     []ScheduleEntry `json:"entries"`
}

type Schedule struct {
	Days        []ScheduleDay `json:"days"`
	TotalDays   int           `json:"total_days"`
	Unscheduled []string      `json:"unscheduled,omitempty"`
}

// dailyCapacity floors the effective throughput; at least one VM a day moves.
func dailyCapacity(vmsPerDay float64) int {
	capacity := int(math.Floor(vmsPerDay))
	if capacity < 1 {
		return 1
	}
	return capacity
}

// BuildDailySchedule lays VMs out day by day. Groups run in cohort order, each
// group's VMs are exhausted before the next group starts and every group starts
// on a fresh day, even when the previous day has spare capacity. Within a group
// VMs follow tenant order.
func BuildDailySchedule(groups []ScheduleGroup, vmsPerDay float64) Schedule {
	ordered := append([]ScheduleGroup(nil), groups...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].CohortOrder < ordered[j].CohortOrder })

	var s Schedule
	for _, g := range ordered {
		rate := g.VMsPerDay
		if rate <= 0 {
			rate = vmsPerDay
		}
		capacity := dailyCapacity(rate)

		var day *ScheduleDay
		for _, t := range g.Tenants {
			for _, vmID := range t.VMIDs {
				if day == nil || len(day.Entries) >= capacity {
					s.Days = append(s.Days, ScheduleDay{
						Day:         len(s.Days) + 1,
						CohortID:    g.CohortID,
						CohortOrder: g.CohortOrder,
					})
					day = &s.Days[len(s.Days)-1]
				}
				day.Entries = append(day.Entries, ScheduleEntry{VMID: vmID, TenantID: t.TenantID})
			}
		}
	}
	s.TotalDays = len(s.Days)
	return s
}
