package calculators

import (
	"fmt"
	"time"

	"github.com/kubev2v/migration-wave-planner/internal/estimation"
)

const (
	// ParamTenantCount number of tenants switched over in the group.
	ParamTenantCount = "tenant_count"
	// ParamCutoverUnitHours fixed switch-over time per tenant.
	ParamCutoverUnitHours = "cutover_unit_hours"
	// ParamAgentSlots number of migration agents running concurrently.
	ParamAgentSlots = "agent_slots"

	DefaultCutoverUnitHours = 0.25
	DefaultAgentSlots       = 1
)

var _ estimation.Calculator = (*Cutover)(nil)

// Cutover estimates the switch-over window: tenants x unit / concurrent agent slots.
type Cutover struct {
	unitHours float64
	slots     int
}

type CutoverOption func(*Cutover)

func WithCutoverUnitHours(hours float64) CutoverOption {
	return func(c *Cutover) {
		if hours >= 0 {
			c.unitHours = hours
		}
	}
}

func WithAgentSlots(slots int) CutoverOption {
	return func(c *Cutover) {
		if slots > 0 {
			c.slots = slots
		}
	}
}

func NewCutover(opts ...CutoverOption) *Cutover {
	res := Cutover{
		unitHours: DefaultCutoverUnitHours,
		slots:     DefaultAgentSlots,
	}
	for _, opt := range opts {
		opt(&res)
	}
	return &res
}

func (c *Cutover) Name() string { return "Cutover" }

func (c *Cutover) Keys() []string {
	return []string{ParamTenantCount}
}

func (c *Cutover) Calculate(params map[string]estimation.Param) (estimation.Estimation, error) {
	tenants, err := requireInt(params, ParamTenantCount)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if tenants < 0 {
		return estimation.Estimation{}, fmt.Errorf("%s must be non-negative", ParamTenantCount)
	}

	unit, err := optionalFloat(params, ParamCutoverUnitHours, c.unitHours)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if unit < 0 {
		return estimation.Estimation{}, fmt.Errorf("%s must be non-negative", ParamCutoverUnitHours)
	}

	slots, err := optionalInt(params, ParamAgentSlots, c.slots)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if slots <= 0 {
		return estimation.Estimation{}, fmt.Errorf("%s must be > 0", ParamAgentSlots)
	}

	hours := float64(tenants) * unit / float64(slots)
	return estimation.Estimation{
		Duration: time.Duration(hours * float64(time.Hour)),
		Reason:   fmt.Sprintf("%d tenants @ %.2fh each / %d agent slots", tenants, unit, slots),
	}, nil
}
