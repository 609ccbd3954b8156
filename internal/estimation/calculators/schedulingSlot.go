package calculators

import (
	"fmt"
	"time"

	"github.com/kubev2v/migration-wave-planner/internal/estimation"
)

const (
	// ParamVMsPerDayPerSlot throughput ceiling of one agent slot, in VMs per working day.
	ParamVMsPerDayPerSlot = "vms_per_day_per_slot"
	// ParamWorkingHoursPerDay converts working days to hours.
	ParamWorkingHoursPerDay = "working_hours_per_day"

	DefaultVMsPerDayPerSlot   = 20.0
	DefaultWorkingHoursPerDay = 8.0
)

var _ estimation.Calculator = (*SchedulingSlot)(nil)

// SchedulingSlot is the bandwidth independent model: how many working days the
// agent slots need to push vm_count VMs through. Duration is working days times
// working hours per day.
type SchedulingSlot struct {
	vmsPerDayPerSlot   float64
	slots              int
	workingHoursPerDay float64
}

type SchedulingSlotOption func(*SchedulingSlot)

func WithVMsPerDayPerSlot(vms float64) SchedulingSlotOption {
	return func(s *SchedulingSlot) {
		if vms > 0 {
			s.vmsPerDayPerSlot = vms
		}
	}
}

func WithSlotCount(slots int) SchedulingSlotOption {
	return func(s *SchedulingSlot) {
		if slots > 0 {
			s.slots = slots
		}
	}
}

func WithWorkingHoursPerDay(hours float64) SchedulingSlotOption {
	return func(s *SchedulingSlot) {
		if hours > 0 && hours <= 24 {
			s.workingHoursPerDay = hours
		}
	}
}

func NewSchedulingSlot(opts ...SchedulingSlotOption) *SchedulingSlot {
	res := SchedulingSlot{
		vmsPerDayPerSlot:   DefaultVMsPerDayPerSlot,
		slots:              DefaultAgentSlots,
		workingHoursPerDay: DefaultWorkingHoursPerDay,
	}
	for _, opt := range opts {
		opt(&res)
	}
	return &res
}

func (c *SchedulingSlot) Name() string { return "Scheduling Slots" }

func (c *SchedulingSlot) Keys() []string {
	return []string{ParamVMCount}
}

func (c *SchedulingSlot) Calculate(params map[string]estimation.Param) (estimation.Estimation, error) {
	vms, err := requireInt(params, ParamVMCount)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if vms < 0 {
		return estimation.Estimation{}, fmt.Errorf("%s must be non-negative", ParamVMCount)
	}

	perSlot, err := optionalFloat(params, ParamVMsPerDayPerSlot, c.vmsPerDayPerSlot)
	if err != nil {
		return estimation.Estimation{}, err
	}
	slots, err := optionalInt(params, ParamAgentSlots, c.slots)
	if err != nil {
		return estimation.Estimation{}, err
	}
	hoursPerDay, err := optionalFloat(params, ParamWorkingHoursPerDay, c.workingHoursPerDay)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if perSlot <= 0 || slots <= 0 || hoursPerDay <= 0 {
		return estimation.Estimation{}, fmt.Errorf("%s, %s and %s must be > 0",
			ParamVMsPerDayPerSlot, ParamAgentSlots, ParamWorkingHoursPerDay)
	}

	vmsPerDay := perSlot * float64(slots)
	days := float64(vms) / vmsPerDay
	return estimation.Estimation{
		Duration: time.Duration(days * hoursPerDay * float64(time.Hour)),
		Reason:   fmt.Sprintf("%d VMs at %.1f VMs/day (%d slots), %.2f working days", vms, vmsPerDay, slots, days),
	}, nil
}
