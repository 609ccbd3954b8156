// Package sizing computes how many target compute nodes a migration needs.
//
// Demand is taken from the best available basis: observed utilisation when
// enough powered-on VMs carry samples, allocation divided by the over-commit
// ratio otherwise, and tenant quotas as a last resort. Nodes are sized so the
// buffered demand lands at 70% utilisation; storage is reported on its own and
// never drives the node count.
package sizing

import (
	"math"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
)

const (
	// TargetCapacityPercent leaves 30% headroom on every node
	TargetCapacityPercent = 70.0
	// CapacityMultiplier is the decimal representation of TargetCapacityPercent
	CapacityMultiplier = TargetCapacityPercent / 100.0

	DefaultPeakBufferPct        = 15.0
	DefaultCoverageThresholdPct = 50.0
	nodeCountTolerance          = 1e-9
)

type Basis string

const (
	BasisActualPerformance Basis = "actual_performance"
	BasisAllocation        Basis = "allocation"
	BasisQuota             Basis = "quota"
)

type Dimension string

const (
	DimensionCPU    Dimension = "cpu"
	DimensionMemory Dimension = "memory"
)

// NodeProfile is a target hardware shape.
type NodeProfile struct {
	Name       string  `json:"name"`
	CPUCores   int     `json:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads,omitempty"`
	MemoryGB   float64 `json:"memory_gb"`
	StorageGB  float64 `json:"storage_gb,omitempty"`
}

func (p NodeProfile) Validate() error {
	if p.CPUCores <= 0 {
		return NewErrInvalidProfile("cpu_cores must be > 0")
	}
	if p.MemoryGB <= 0 {
		return NewErrInvalidProfile("memory_gb must be > 0")
	}
	if p.CPUThreads != 0 && p.CPUThreads < p.CPUCores {
		return NewErrInvalidProfile("cpu_threads must not be below cpu_cores")
	}
	return nil
}

type Request struct {
	Tenants []inventory.Tenant
	VMs     []inventory.VM

	// Profile is the node shape to size with. When nil the most common shape
	// of ExistingNodes is used.
	Profile       *NodeProfile
	ExistingNodes []inventory.TargetNode

	Overcommit           plan.OvercommitProfile
	PeakBufferPct        float64
	CoverageThresholdPct float64
}

// NewRequest sizes the in-scope part of a snapshot with the project settings.
func NewRequest(s *inventory.Snapshot, cfg plan.ProjectConfig) Request {
	return Request{
		Tenants:              s.InScopeTenants(),
		VMs:                  s.InScopeVMs(),
		ExistingNodes:        s.TargetNodes,
		Overcommit:           cfg.Overcommit,
		PeakBufferPct:        cfg.PeakBufferPct,
		CoverageThresholdPct: cfg.PerfCoverageThreshold,
	}
}

type Result struct {
	Basis           Basis   `json:"basis"`
	PerfCoveragePct float64 `json:"perf_coverage_pct"`
	PoweredOnVMs    int     `json:"powered_on_vms"`
	SampledVMs      int     `json:"sampled_vms"`

	CPUOvercommit    string `json:"cpu_overcommit"`
	MemoryOvercommit string `json:"memory_overcommit"`

	DemandCPU        float64 `json:"demand_cpu"`
	DemandMemoryGB   float64 `json:"demand_memory_gb"`
	PeakBufferPct    float64 `json:"peak_buffer_pct"`
	BufferedCPU      float64 `json:"buffered_cpu"`
	BufferedMemoryGB float64 `json:"buffered_memory_gb"`

	Profile              NodeProfile `json:"profile"`
	ProfileDetected      bool        `json:"profile_detected"`
	NodeCPUCapacity      float64     `json:"node_cpu_capacity"`
	NodeMemoryCapacityGB float64     `json:"node_memory_capacity_gb"`

	RequiredNodes     int       `json:"required_nodes"`
	ExistingNodes     int       `json:"existing_nodes"`
	AdditionalNodes   int       `json:"additional_nodes"`
	LimitingDimension Dimension `json:"limiting_dimension"`

	// StorageRequiredGB is informational; block storage is provisioned separately.
	StorageRequiredGB float64 `json:"storage_required_gb"`
}

// Calculate sizes the request. It fails only on an unknown over-commit ratio
// or an unusable node profile.
func Calculate(req Request) (*Result, error) {
	cpuRatio, err := CPUOvercommitMultiplier(req.Overcommit.CPU)
	if err != nil {
		return nil, err
	}
	memRatio, err := MemoryOvercommitMultiplier(req.Overcommit.Memory)
	if err != nil {
		return nil, err
	}

	res := &Result{
		CPUOvercommit:    req.Overcommit.CPU,
		MemoryOvercommit: req.Overcommit.Memory,
		PeakBufferPct:    req.PeakBufferPct,
		ExistingNodes:    len(req.ExistingNodes),
	}

	if req.Profile != nil {
		res.Profile = *req.Profile
	} else {
		detected, ok := DetectProfile(req.ExistingNodes)
		if !ok {
			return nil, NewErrInvalidProfile("no node profile given and no existing target nodes to detect one from")
		}
		res.Profile = detected
		res.ProfileDetected = true
	}
	if err := res.Profile.Validate(); err != nil {
		return nil, err
	}

	threshold := req.CoverageThresholdPct
	if threshold <= 0 {
		threshold = DefaultCoverageThresholdPct
	}

	for _, vm := range req.VMs {
		if !vm.PoweredOn {
			continue
		}
		res.PoweredOnVMs++
		if vm.HasPerfSamples {
			res.SampledVMs++
		}
	}
	if res.PoweredOnVMs > 0 {
		res.PerfCoveragePct = float64(res.SampledVMs) / float64(res.PoweredOnVMs) * 100
	}

	allocCPU, allocMem := 0.0, 0.0
	for _, vm := range req.VMs {
		allocCPU += float64(vm.VCPU)
		allocMem += vm.MemoryGB
	}

	switch {
	case res.PoweredOnVMs > 0 && res.PerfCoveragePct >= threshold:
		res.Basis = BasisActualPerformance
		for _, vm := range req.VMs {
			if !vm.PoweredOn {
				continue
			}
			if vm.HasPerfSamples {
				// observed load is already physical
				res.DemandCPU += float64(vm.VCPU) * vm.CPUUtilPct / 100
				res.DemandMemoryGB += vm.MemoryGB * vm.MemUtilPct / 100
				continue
			}
			res.DemandCPU += float64(vm.VCPU) / cpuRatio
			res.DemandMemoryGB += vm.MemoryGB / memRatio
		}
	case allocCPU > 0 || allocMem > 0:
		res.Basis = BasisAllocation
		res.DemandCPU = allocCPU / cpuRatio
		res.DemandMemoryGB = allocMem / memRatio
	default:
		res.Basis = BasisQuota
		for _, t := range req.Tenants {
			res.DemandCPU += t.QuotaVCPU / cpuRatio
			res.DemandMemoryGB += t.QuotaMemoryGB / memRatio
		}
	}

	buffer := 1 + req.PeakBufferPct/100
	res.BufferedCPU = res.DemandCPU * buffer
	res.BufferedMemoryGB = res.DemandMemoryGB * buffer

	res.NodeCPUCapacity = CalculateEffectiveCPU(res.Profile.CPUCores, res.Profile.CPUThreads) * CapacityMultiplier
	res.NodeMemoryCapacityGB = res.Profile.MemoryGB * CapacityMultiplier

	cpuNodes := res.BufferedCPU / res.NodeCPUCapacity
	memNodes := res.BufferedMemoryGB / res.NodeMemoryCapacityGB
	res.LimitingDimension = DimensionCPU
	if memNodes > cpuNodes {
		res.LimitingDimension = DimensionMemory
	}
	res.RequiredNodes = int(math.Ceil(math.Max(cpuNodes, memNodes) - nodeCountTolerance))
	if res.RequiredNodes < 0 {
		res.RequiredNodes = 0
	}
	if extra := res.RequiredNodes - res.ExistingNodes; extra > 0 {
		res.AdditionalNodes = extra
	}

	for _, vm := range req.VMs {
		res.StorageRequiredGB += vm.UsedDiskGB
	}
	res.StorageRequiredGB *= buffer

	return res, nil
}

type shapeKey struct {
	cores, threads int
	memoryGB       float64
	storageGB      float64
}

func (k shapeKey) larger(other shapeKey) bool {
	if k.cores != other.cores {
		return k.cores > other.cores
	}
	if k.memoryGB != other.memoryGB {
		return k.memoryGB > other.memoryGB
	}
	if k.threads != other.threads {
		return k.threads > other.threads
	}
	return k.storageGB > other.storageGB
}

// DetectProfile returns the most common node shape. Ties go to the larger CPU
// count, then the larger memory.
func DetectProfile(nodes []inventory.TargetNode) (NodeProfile, bool) {
	if len(nodes) == 0 {
		return NodeProfile{}, false
	}
	counts := make(map[shapeKey]int)
	for _, n := range nodes {
		counts[shapeKey{cores: n.CPUCores, threads: n.CPUThreads, memoryGB: n.MemoryGB, storageGB: n.StorageGB}]++
	}

	var best shapeKey
	bestCount := 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k.larger(best)) {
			best, bestCount = k, c
		}
	}

	return NodeProfile{
		Name:       "detected",
		CPUCores:   best.cores,
		CPUThreads: best.threads,
		MemoryGB:   best.memoryGB,
		StorageGB:  best.storageGB,
	}, true
}

// CohortResult is the sizing of one cohort's tenants.
type CohortResult struct {
	CohortID    string  `json:"cohort_id"`
	CohortOrder int     `json:"cohort_order"`
	Result      *Result `json:"result"`
}

// SizeCohorts sizes every cohort on its own, applying the cohort's over-commit
// override on top of base.
func SizeCohorts(base Request, s *inventory.Snapshot, cohorts []plan.Cohort) ([]CohortResult, error) {
	byTenant := s.VMsByTenant()
	out := make([]CohortResult, 0, len(cohorts))
	for _, c := range plan.SortCohorts(cohorts) {
		req := base
		req.Tenants = nil
		req.VMs = nil
		if c.Overrides.Overcommit != nil {
			req.Overcommit = *c.Overrides.Overcommit
		}
		for _, t := range s.InScopeTenants() {
			if id, ok := t.Cohort.ID(); ok && id == c.ID {
				req.Tenants = append(req.Tenants, t)
				req.VMs = append(req.VMs, byTenant[t.ID]...)
			}
		}
		res, err := Calculate(req)
		if err != nil {
			return nil, err
		}
		out = append(out, CohortResult{CohortID: c.ID, CohortOrder: c.Order, Result: res})
	}
	return out, nil
}
