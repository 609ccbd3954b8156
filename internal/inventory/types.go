// Package inventory holds the read-only facts a planning pass works on: VMs,
// tenants and target nodes, plus the aggregates derived from them.
//
// Facts are treated as an immutable snapshot. Aggregates are always recomputed
// from VM rows and never stored next to the tenant.
package inventory

// VM is one machine to migrate.
type VM struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	TenantID string `json:"tenant_id"`

	VCPU       int     `json:"vcpu"`
	MemoryGB   float64 `json:"memory_gb"`
	DiskGB     float64 `json:"disk_gb"`
	UsedDiskGB float64 `json:"used_disk_gb"`

	// Utilization is only meaningful when HasPerfSamples is set.
	CPUUtilPct     float64 `json:"cpu_util_pct"`
	MemUtilPct     float64 `json:"mem_util_pct"`
	HasPerfSamples bool    `json:"has_perf_samples"`
	PoweredOn      bool    `json:"powered_on"`

	Networks    []string `json:"networks,omitempty"`
	OSFamily    string   `json:"os_family,omitempty"`
	OSSupported bool     `json:"os_supported"`
	RiskScore   float64  `json:"risk_score"`

	ComputedMode MigrationMode `json:"computed_mode,omitempty"`
	ModeOverride ModeOverride  `json:"mode_override"`

	Status    MigrationStatus `json:"status,omitempty"`
	DependsOn []string        `json:"depends_on,omitempty"`

	AssessmentPassed  bool `json:"assessment_passed"`
	CriticalGaps      int  `json:"critical_gaps"`
	HasBackupBaseline bool `json:"has_backup_baseline"`
}

// EffectiveMode is the only place the migration mode of a VM is resolved:
// the operator override when set, the computed classification otherwise.
func (v VM) EffectiveMode() MigrationMode {
	if mode, ok := v.ModeOverride.Mode(); ok {
		return mode
	}
	return ClassifyMode(v)
}

// ClassifyMode returns the computed classification. VMs imported without one
// are classified by power state: a powered-off VM has nothing to keep running
// and is moved cold.
func ClassifyMode(v VM) MigrationMode {
	if v.ComputedMode.Valid() {
		return v.ComputedMode
	}
	if !v.PoweredOn {
		return ModeCold
	}
	return ModeWarm
}

// CurrentStatus treats an empty status as not started.
func (v VM) CurrentStatus() MigrationStatus {
	if v.Status == "" {
		return StatusNotStarted
	}
	return v.Status
}

// Mapping is a target-side mapping record. Only presence and review state
// matter to planning.
type Mapping struct {
	Target     string `json:"target,omitempty"`
	Confirmed  bool   `json:"confirmed"`
	AutoSeeded bool   `json:"auto_seeded,omitempty"`
}

func (m Mapping) Present() bool {
	return m.Target != ""
}

type Tenant struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	IncludeInPlan bool   `json:"include_in_plan"`

	TargetMapping   Mapping            `json:"target_mapping"`
	NetworkMappings map[string]Mapping `json:"network_mappings,omitempty"`

	// Priority is operator supplied; lower goes earlier, nil goes last.
	Priority *int      `json:"priority,omitempty"`
	Cohort   CohortRef `json:"cohort"`

	QuotaVCPU     float64 `json:"quota_vcpu,omitempty"`
	QuotaMemoryGB float64 `json:"quota_memory_gb,omitempty"`
}

// LowestPriority is what an unset tenant priority sorts as.
const LowestPriority = int(^uint(0) >> 1)

func (t Tenant) EffectivePriority() int {
	if t.Priority == nil {
		return LowestPriority
	}
	return *t.Priority
}

// TargetNode is an existing node on the target platform.
type TargetNode struct {
	Name       string  `json:"name"`
	CPUCores   int     `json:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads,omitempty"`
	MemoryGB   float64 `json:"memory_gb"`
	StorageGB  float64 `json:"storage_gb,omitempty"`
}
