package calculators

import (
	"fmt"
	"time"

	"github.com/kubev2v/migration-wave-planner/internal/estimation"
)

// Param prefix = parameter keys in the params map given to the calculator
// Default prefix = default values for missing params and/or hardcoded assumptions
const (
	// ParamVMCount number of VMs in the estimated group.
	ParamVMCount = "vm_count"
	// ParamCheckMinsPerVM engineer minutes spent verifying each VM after cutover
	ParamCheckMinsPerVM = "check_mins_per_vm"
	// ParamPostMigrationEngineers number of engineers verifying VMs in parallel
	ParamPostMigrationEngineers = "post_migration_engineers"

	DefaultCheckMinsPerVM = 60.0
	DefaultEngineerCount  = 10
)

var _ estimation.Calculator = (*PostMigrationChecks)(nil)

// PostMigrationChecks estimates engineer time spent verifying migrated VMs.
// The figure is advisory: it happens after cutover and is reported next to the
// duration models, never added to them.
type PostMigrationChecks struct {
	minsPerVM     float64
	engineerCount int
}

type PostMigrationChecksOption func(*PostMigrationChecks)

func WithCheckMinsPerVM(mins float64) PostMigrationChecksOption {
	return func(p *PostMigrationChecks) {
		p.minsPerVM = mins
	}
}

func WithEngineerCount(count int) PostMigrationChecksOption {
	return func(p *PostMigrationChecks) {
		p.engineerCount = count
	}
}

func NewPostMigrationChecks(opts ...PostMigrationChecksOption) *PostMigrationChecks {
	res := PostMigrationChecks{
		minsPerVM:     DefaultCheckMinsPerVM,
		engineerCount: DefaultEngineerCount,
	}
	for _, opt := range opts {
		opt(&res)
	}
	return &res
}

func (c *PostMigrationChecks) Name() string { return "Post-Migration Checks" }

func (c *PostMigrationChecks) Keys() []string {
	return []string{ParamVMCount}
}

// Calculate spreads vm_count x minutes per VM over the engineers. The minutes
// and engineer params are optional and fall back to the calculator settings.
func (c *PostMigrationChecks) Calculate(params map[string]estimation.Param) (estimation.Estimation, error) {
	vmCount, err := requireInt(params, ParamVMCount)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if vmCount < 0 {
		return estimation.Estimation{}, fmt.Errorf("%s must be non-negative", ParamVMCount)
	}

	minsPerVM, err := optionalFloat(params, ParamCheckMinsPerVM, c.minsPerVM)
	if err != nil {
		return estimation.Estimation{}, err
	}
	engineers, err := optionalInt(params, ParamPostMigrationEngineers, c.engineerCount)
	if err != nil {
		return estimation.Estimation{}, err
	}
	if engineers <= 0 {
		return estimation.Estimation{}, fmt.Errorf("engineers must be > 0")
	}

	wallMins := float64(vmCount) * minsPerVM / float64(engineers)
	return estimation.Estimation{
		Duration: time.Duration(wallMins * float64(time.Minute)),
		Reason:   fmt.Sprintf("%d VMs @ %.1f mins each / %d engineers", vmCount, minsPerVM, engineers),
	}, nil
}
