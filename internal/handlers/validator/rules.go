package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func registerStructFn(fn validator.StructLevelFunc, types ...any) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		v.RegisterStructValidation(fn, types...)
	}
}

// NewPlanningValidationRules registers every rule the project configuration
// and the planning requests use.
func NewPlanningValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("project_name", nameValidator),
		},
		{
			Rule: registerFn("cpu_overcommit", cpuOvercommitValidator),
		},
		{
			Rule: registerFn("memory_overcommit", memoryOvercommitValidator),
		},
		{
			Rule: registerFn("cohort_strategy", cohortStrategyValidator),
		},
		{
			Rule: registerFn("wave_strategy", waveStrategyValidator),
		},
		{
			Rule: registerFn("wave_state", waveStateValidator),
		},
		{
			Rule: registerFn("cohort_status", cohortStatusValidator),
		},
		{
			Rule: registerFn("vm_status", vmStatusValidator),
		},
		{
			Rule: registerStructFn(weightsValidator, scoring.Weights{}),
		},
	}
}
