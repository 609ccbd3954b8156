package wave

import (
	"cmp"
	"math"
	"sort"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
)

type Strategy string

const (
	StrategyPilotFirst Strategy = "pilot_first"
	StrategyByTenant   Strategy = "by_tenant"
	StrategyByRisk     Strategy = "by_risk"
	StrategyByPriority Strategy = "by_priority"
	StrategyBalanced   Strategy = "balanced"
)

var strategies = []Strategy{
	StrategyPilotFirst,
	StrategyByTenant,
	StrategyByRisk,
	StrategyByPriority,
	StrategyBalanced,
}

func Strategies() []string {
	out := make([]string, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, string(s))
	}
	return out
}

func ParseStrategy(name string) (Strategy, error) {
	for _, s := range strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", NewErrUnknownStrategy(name)
}

// partitioner splits the VMs of one cohort into initial waves.
type partitioner struct {
	size      int
	pilotSize int
	tenants   map[string]inventory.Tenant
	scores    map[string]float64
}

func (p partitioner) ease(tenantID string) float64 {
	if s, ok := p.scores[tenantID]; ok {
		return s
	}
	return scoring.Midpoint
}

func (p partitioner) split(strategy Strategy, vms []inventory.VM) [][]inventory.VM {
	switch strategy {
	case StrategyByTenant:
		return p.byTenant(vms)
	case StrategyByRisk:
		return chunk(p.sorted(vms, func(a, b inventory.VM) int {
			return cmp.Compare(a.RiskScore, b.RiskScore)
		}), p.size)
	case StrategyByPriority:
		return chunk(p.sorted(vms, func(a, b inventory.VM) int {
			pa, pb := p.tenants[a.TenantID].EffectivePriority(), p.tenants[b.TenantID].EffectivePriority()
			if pa != pb {
				return cmp.Compare(pa, pb)
			}
			return cmp.Compare(a.TenantID, b.TenantID)
		}), p.size)
	case StrategyPilotFirst:
		return p.pilotFirst(vms)
	case StrategyBalanced:
		return p.balanced(vms)
	}
	return nil
}

// sorted orders by the given comparison and falls back to the VM id.
func (p partitioner) sorted(vms []inventory.VM, by func(a, b inventory.VM) int) []inventory.VM {
	out := append([]inventory.VM(nil), vms...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := by(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (p partitioner) byEase(a, b inventory.VM) int {
	if c := cmp.Compare(p.ease(a.TenantID), p.ease(b.TenantID)); c != 0 {
		return c
	}
	return cmp.Compare(a.TenantID, b.TenantID)
}

// byTenant keeps each tenant in its own waves, easiest tenant first.
func (p partitioner) byTenant(vms []inventory.VM) [][]inventory.VM {
	ordered := p.sorted(vms, p.byEase)
	var out [][]inventory.VM
	start := 0
	for i := 1; i <= len(ordered); i++ {
		if i < len(ordered) && ordered[i].TenantID == ordered[start].TenantID {
			continue
		}
		out = append(out, chunk(ordered[start:i], p.size)...)
		start = i
	}
	return out
}

// pilotFirst opens with a small wave of the least risky VMs of the easiest
// tenants.
func (p partitioner) pilotFirst(vms []inventory.VM) [][]inventory.VM {
	ordered := p.sorted(vms, func(a, b inventory.VM) int {
		if c := p.byEase(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.RiskScore, b.RiskScore)
	})
	pilot := p.pilotSize
	if pilot > p.size {
		pilot = p.size
	}
	if pilot >= len(ordered) {
		return chunk(ordered, p.size)
	}
	return append([][]inventory.VM{ordered[:pilot]}, chunk(ordered[pilot:], p.size)...)
}

// balanced spreads used disk over the fewest waves the size allows, placing the
// largest VM first into the lightest wave with room.
func (p partitioner) balanced(vms []inventory.VM) [][]inventory.VM {
	if len(vms) == 0 {
		return nil
	}
	count := int(math.Ceil(float64(len(vms)) / float64(p.size)))
	ordered := p.sorted(vms, func(a, b inventory.VM) int {
		return cmp.Compare(b.UsedDiskGB, a.UsedDiskGB)
	})

	out := make([][]inventory.VM, count)
	disk := make([]float64, count)
	for _, vm := range ordered {
		best := -1
		for i := range out {
			if len(out[i]) >= p.size {
				continue
			}
			if best < 0 || disk[i] < disk[best] {
				best = i
			}
		}
		out[best] = append(out[best], vm)
		disk[best] += vm.UsedDiskGB
	}
	return out
}

func chunk(vms []inventory.VM, size int) [][]inventory.VM {
	var out [][]inventory.VM
	for start := 0; start < len(vms); start += size {
		end := start + size
		if end > len(vms) {
			end = len(vms)
		}
		out = append(out, append([]inventory.VM(nil), vms[start:end]...))
	}
	return out
}
