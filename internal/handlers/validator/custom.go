package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
)

var projectNameValidRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9+\-_. ]*$`)

func nameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return projectNameValidRegex.MatchString(val)
}

func cpuOvercommitValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := sizing.CPUOvercommitMultiplier(val)
	return err == nil
}

func memoryOvercommitValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := sizing.MemoryOvercommitMultiplier(val)
	return err == nil
}

func cohortStrategyValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := cohort.ParseStrategy(val)
	return err == nil
}

func waveStrategyValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := wave.ParseStrategy(val)
	return err == nil
}

func waveStateValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	switch plan.WaveState(val) {
	case plan.WavePlanned, plan.WavePreChecksPassed, plan.WaveExecuting, plan.WaveValidating,
		plan.WaveComplete, plan.WaveFailed, plan.WaveCancelled:
		return true
	default:
		return false
	}
}

func cohortStatusValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	switch plan.CohortStatus(val) {
	case plan.CohortPlanning, plan.CohortReady, plan.CohortExecuting, plan.CohortComplete, plan.CohortPaused:
		return true
	default:
		return false
	}
}

func vmStatusValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return inventory.MigrationStatus(val).Valid()
}

// weightsValidator checks the weights as a whole: non negative, summing to 100.
func weightsValidator(sl validator.StructLevel) {
	w, ok := sl.Current().Interface().(scoring.Weights)
	if !ok {
		return
	}
	if err := w.Validate(); err != nil {
		sl.ReportError(w, "Weights", "Weights", "weights", err.Error())
	}
}
