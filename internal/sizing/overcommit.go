package sizing

import (
	"fmt"
	"sort"
)

var cpuOverCommitMultipliers = map[string]float64{
	"1:1": 1.0,
	"1:2": 2.0,
	"1:4": 4.0,
	"1:6": 6.0,
}

var memoryOverCommitMultipliers = map[string]float64{
	"1:1": 1.0,
	"1:2": 2.0,
	"1:4": 4.0,
}

type ErrInvalidOvercommit struct {
	error
}

func NewErrInvalidOvercommit(resource, ratio string) *ErrInvalidOvercommit {
	return &ErrInvalidOvercommit{fmt.Errorf("unknown %s over-commit ratio %q", resource, ratio)}
}

type ErrInvalidProfile struct {
	error
}

func NewErrInvalidProfile(message string) *ErrInvalidProfile {
	return &ErrInvalidProfile{fmt.Errorf("invalid node profile: %s", message)}
}

// CPUOvercommitMultiplier converts a CPU ratio such as "1:4" to its multiplier.
func CPUOvercommitMultiplier(ratio string) (float64, error) {
	m, ok := cpuOverCommitMultipliers[ratio]
	if !ok {
		return 0, NewErrInvalidOvercommit("CPU", ratio)
	}
	return m, nil
}

// MemoryOvercommitMultiplier converts a memory ratio such as "1:2" to its multiplier.
func MemoryOvercommitMultiplier(ratio string) (float64, error) {
	m, ok := memoryOverCommitMultipliers[ratio]
	if !ok {
		return 0, NewErrInvalidOvercommit("memory", ratio)
	}
	return m, nil
}

func CPUOvercommitRatios() []string {
	return ratios(cpuOverCommitMultipliers)
}

func MemoryOvercommitRatios() []string {
	return ratios(memoryOverCommitMultipliers)
}

func ratios(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return m[out[i]] < m[out[j]] })
	return out
}

// CalculateEffectiveCPU calculates SMT-adjusted effective CPU cores
// Formula: effectiveCPU = physicalCores + ((threads - physicalCores) * 0.5)
// If threads == 0 or threads <= cores, returns cores (no SMT)
func CalculateEffectiveCPU(physicalCores, threads int) float64 {
	if physicalCores <= 0 {
		return 0.0
	}
	if threads <= physicalCores {
		return float64(physicalCores)
	}
	return float64(physicalCores) + float64(threads-physicalCores)*0.5
}
