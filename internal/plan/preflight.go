package plan

import (
	"time"

	"github.com/google/uuid"
)

type CheckID string

const (
	CheckTargetMapping    CheckID = "target_mapping"
	CheckNetworkMapping   CheckID = "network_mapping"
	CheckAssessmentPassed CheckID = "assessment_passed"
	CheckCriticalGaps     CheckID = "critical_gaps"
	CheckAgentReachable   CheckID = "agent_reachable"
	CheckBackupBaseline   CheckID = "backup_baseline"
)

type Severity string

const (
	SeverityBlocker Severity = "blocker"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// CheckDefinition is one entry of a project's pre-flight catalogue.
type CheckDefinition struct {
	ID          CheckID  `json:"id" yaml:"id" validate:"required,oneof=target_mapping network_mapping assessment_passed critical_gaps agent_reachable backup_baseline"`
	Severity    Severity `json:"severity" yaml:"severity" validate:"required,oneof=blocker warning info"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

func DefaultPreflightCatalogue() []CheckDefinition {
	return []CheckDefinition{
		{ID: CheckTargetMapping, Severity: SeverityBlocker, Description: "every tenant has a target mapping"},
		{ID: CheckNetworkMapping, Severity: SeverityBlocker, Description: "every network used by the wave is mapped"},
		{ID: CheckAssessmentPassed, Severity: SeverityBlocker, Description: "every VM passed inventory assessment"},
		{ID: CheckCriticalGaps, Severity: SeverityBlocker, Description: "no unresolved critical gap affects the wave"},
		{ID: CheckAgentReachable, Severity: SeverityBlocker, Description: "the execution agent is reachable"},
		{ID: CheckBackupBaseline, Severity: SeverityWarning, Description: "a backup baseline exists for every VM"},
	}
}

type CheckResult struct {
	ID              CheckID  `json:"id"`
	Severity        Severity `json:"severity"`
	Passed          bool     `json:"passed"`
	Message         string   `json:"message,omitempty"`
	AffectedVMs     []string `json:"affected_vms,omitempty"`
	AffectedTenants []string `json:"affected_tenants,omitempty"`
}

type PreflightReport struct {
	WaveID      uuid.UUID     `json:"wave_id"`
	Results     []CheckResult `json:"results"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// FailedBlockers lists failing checks of blocker severity.
func (r *PreflightReport) FailedBlockers() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if !res.Passed && res.Severity == SeverityBlocker {
			out = append(out, res)
		}
	}
	return out
}

// Advisories lists failing warning and info checks.
func (r *PreflightReport) Advisories() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if !res.Passed && res.Severity != SeverityBlocker {
			out = append(out, res)
		}
	}
	return out
}

func (r *PreflightReport) Blocked() bool {
	return len(r.FailedBlockers()) > 0
}
