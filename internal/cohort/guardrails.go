package cohort

import (
	"fmt"

	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
)

type Guardrail string

const (
	GuardrailMaxVMs           Guardrail = "max_vms"
	GuardrailMaxDiskGB        Guardrail = "max_disk_gb"
	GuardrailMaxAvgRisk       Guardrail = "max_avg_risk"
	GuardrailMinOSSupportRate Guardrail = "min_os_support_rate"
	GuardrailMaxBandwidthDays Guardrail = "max_bandwidth_days"
)

// Guardrails are hard caps a cohort must satisfy. A nil field is not checked.
type Guardrails struct {
	MaxVMs           *int     `json:"max_vms,omitempty" validate:"omitempty,gt=0"`
	MaxDiskGB        *float64 `json:"max_disk_gb,omitempty" validate:"omitempty,gt=0"`
	MaxAvgRisk       *float64 `json:"max_avg_risk,omitempty" validate:"omitempty,gte=0"`
	MinOSSupportRate *float64 `json:"min_os_support_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxBandwidthDays *float64 `json:"max_bandwidth_days,omitempty" validate:"omitempty,gt=0"`
}

func (g Guardrails) IsZero() bool {
	return g.MaxVMs == nil && g.MaxDiskGB == nil && g.MaxAvgRisk == nil &&
		g.MinOSSupportRate == nil && g.MaxBandwidthDays == nil
}

// load accumulates the figures of a candidate cohort.
type load struct {
	tenants   []inventory.Tenant
	vms       []inventory.VM
	vmCount   int
	diskGB    float64
	riskSum   float64
	supported int
	easeSum   float64
}

func (l load) with(m member) load {
	out := l
	out.tenants = append(append([]inventory.Tenant(nil), l.tenants...), m.tenant)
	out.vms = append(append([]inventory.VM(nil), l.vms...), m.vms...)
	out.vmCount += m.agg.VMCount
	out.diskGB += m.agg.TotalUsedDiskGB
	out.riskSum += m.agg.RiskSum
	out.supported += m.agg.SupportedVMs
	out.easeSum += m.ease
	return out
}

// avgRisk is weighted by VM count.
func (l load) avgRisk() float64 {
	if l.vmCount == 0 {
		return 0
	}
	return l.riskSum / float64(l.vmCount)
}

func (l load) osSupportRate() float64 {
	if l.vmCount == 0 {
		return 1
	}
	return float64(l.supported) / float64(l.vmCount)
}

func (l load) avgEase() float64 {
	if len(l.tenants) == 0 {
		return 0
	}
	return l.easeSum / float64(len(l.tenants))
}

type violation struct {
	guardrail Guardrail
	detail    string
}

// check returns the first guardrail the candidate breaks.
func (g Guardrails) check(l load, est *estimator.Estimator) *violation {
	if g.MaxVMs != nil && l.vmCount > *g.MaxVMs {
		return &violation{GuardrailMaxVMs, fmt.Sprintf("%d VMs exceeds %d", l.vmCount, *g.MaxVMs)}
	}
	if g.MaxDiskGB != nil && l.diskGB > *g.MaxDiskGB {
		return &violation{GuardrailMaxDiskGB, fmt.Sprintf("%.1f GB exceeds %.1f GB", l.diskGB, *g.MaxDiskGB)}
	}
	if g.MaxAvgRisk != nil && l.avgRisk() > *g.MaxAvgRisk {
		return &violation{GuardrailMaxAvgRisk, fmt.Sprintf("average risk %.2f exceeds %.2f", l.avgRisk(), *g.MaxAvgRisk)}
	}
	if g.MinOSSupportRate != nil && l.osSupportRate() < *g.MinOSSupportRate {
		return &violation{GuardrailMinOSSupportRate, fmt.Sprintf("OS support rate %.2f below %.2f", l.osSupportRate(), *g.MinOSSupportRate)}
	}
	if g.MaxBandwidthDays != nil && est != nil {
		days := est.EstimateGroup("", 0, l.tenants, l.vms).Bandwidth.Days
		if days > *g.MaxBandwidthDays {
			return &violation{GuardrailMaxBandwidthDays, fmt.Sprintf("%.2f bandwidth days exceeds %.2f", days, *g.MaxBandwidthDays)}
		}
	}
	return nil
}
