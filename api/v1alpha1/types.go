// Package v1alpha1 holds the request and response documents of the planning
// API.
package v1alpha1

import (
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
)

type Status struct {
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}

type Info struct {
	GitCommit   string `json:"git_commit"`
	VersionName string `json:"version_name"`
}

type Project struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Config          plan.ProjectConfig `json:"config"`
	Version         int                `json:"version"`
	SnapshotVersion int                `json:"snapshot_version,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       *time.Time         `json:"updated_at,omitempty"`
}

type ProjectList []Project

type ProjectCreate struct {
	Name string `json:"name" validate:"required,max=100,project_name"`
	// Config defaults to the service planning defaults when omitted.
	Config *plan.ProjectConfig `json:"config,omitempty" validate:"omitempty"`
}

type ProjectConfigUpdate struct {
	Config  plan.ProjectConfig `json:"config" validate:"required"`
	Version int                `json:"version" validate:"gt=0"`
}

type Snapshot struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	TenantCount int       `json:"tenant_count"`
	VMCount     int       `json:"vm_count"`
	NodeCount   int       `json:"node_count"`
}

type ScoreList struct {
	Weights scoring.Weights     `json:"weights"`
	Scores  []scoring.Breakdown `json:"scores"`
}

type CohortPlanRequest struct {
	Strategy      string            `json:"strategy" validate:"required,cohort_strategy"`
	CohortCount   int               `json:"cohort_count,omitempty" validate:"gte=0"`
	RiskThreshold *float64          `json:"risk_threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	PilotSize     int               `json:"pilot_size,omitempty" validate:"gte=0"`
	Guardrails    cohort.Guardrails `json:"guardrails"`
}

type CohortCommitRequest struct {
	CohortPlanRequest
	// SnapshotVersion, when set, must still be the project's latest inventory
	// version.
	SnapshotVersion int `json:"snapshot_version,omitempty" validate:"gte=0"`
}

type RebalanceRequest struct {
	CohortCount int               `json:"cohort_count,omitempty" validate:"gte=0"`
	Guardrails  cohort.Guardrails `json:"guardrails"`
}

type Cohort struct {
	plan.Cohort
	Strategy  string   `json:"strategy,omitempty"`
	TenantIDs []string `json:"tenant_ids"`
}

type CohortList []Cohort

type CohortCommit struct {
	Cohorts         CohortList           `json:"cohorts"`
	Unplaceable     []cohort.Unplaceable `json:"unplaceable"`
	SnapshotVersion int                  `json:"snapshot_version"`
}

type CohortUpdate struct {
	Name          *string               `json:"name,omitempty" validate:"omitempty,max=100"`
	PredecessorID *string               `json:"predecessor_id,omitempty"`
	Overrides     *plan.ResourceProfile `json:"overrides,omitempty" validate:"omitempty"`
	Version       int                   `json:"version" validate:"gt=0"`
}

type CohortTransition struct {
	Status  string `json:"status" validate:"required,cohort_status"`
	Version int    `json:"version" validate:"gt=0"`
}

type Estimate = estimator.ProjectEstimate

type SizingRequest struct {
	Profile *sizing.NodeProfile `json:"profile,omitempty" validate:"omitempty"`
	// PerCohort adds a sizing result per committed cohort with its overrides.
	PerCohort bool `json:"per_cohort,omitempty"`
}

type Sizing struct {
	Project *sizing.Result        `json:"project"`
	Cohorts []sizing.CohortResult `json:"cohorts,omitempty"`
}

type WavePlanRequest struct {
	Strategy  string `json:"strategy" validate:"required,wave_strategy"`
	WaveSize  int    `json:"wave_size,omitempty" validate:"gte=0"`
	PilotSize int    `json:"pilot_size,omitempty" validate:"gte=0"`
}

type WaveCommitRequest struct {
	WavePlanRequest
	AcceptConflicts bool `json:"accept_conflicts,omitempty"`
}

type WavePlan = wave.BuildResult

type Wave struct {
	plan.Wave
	Preflight *plan.PreflightReport `json:"preflight,omitempty"`
}

type WaveList []Wave

type WaveTransition struct {
	State   string `json:"state" validate:"required,wave_state"`
	Version int    `json:"version" validate:"gt=0"`
}

type VMStatusUpdate struct {
	Status string `json:"status" validate:"required,vm_status"`
}

type VMStatus struct {
	VMID            string `json:"vm_id"`
	Status          string `json:"status"`
	SnapshotVersion int    `json:"snapshot_version"`
}

type Funnel = plan.Funnel

type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
)

type ExportPublished struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
}
