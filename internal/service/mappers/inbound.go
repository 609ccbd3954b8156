package mappers

import (
	"github.com/google/uuid"
	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
)

type ProjectCreateForm struct {
	Name   string
	Config plan.ProjectConfig
}

func (f ProjectCreateForm) ToModel() model.Project {
	return model.Project{
		ID:      uuid.New(),
		Name:    f.Name,
		Config:  model.MakeJSONField(f.Config),
		Version: 1,
	}
}

// ProjectCreateFormFromApi fills a missing configuration with defaults.
func ProjectCreateFormFromApi(resource api.ProjectCreate, defaults plan.ProjectConfig) ProjectCreateForm {
	form := ProjectCreateForm{Name: resource.Name, Config: defaults}
	if resource.Config != nil {
		form.Config = *resource.Config
	}
	return form
}

type CohortPlanForm struct {
	Strategy      string
	CohortCount   int
	RiskThreshold float64
	PilotSize     int
	Guardrails    cohort.Guardrails
	// SnapshotVersion of zero accepts whatever inventory is current.
	SnapshotVersion int
}

func CohortPlanFormFromApi(resource api.CohortPlanRequest) CohortPlanForm {
	form := CohortPlanForm{
		Strategy:    resource.Strategy,
		CohortCount: resource.CohortCount,
		PilotSize:   resource.PilotSize,
		Guardrails:  resource.Guardrails,
	}
	if resource.RiskThreshold != nil {
		form.RiskThreshold = *resource.RiskThreshold
	}
	return form
}

func CohortCommitFormFromApi(resource api.CohortCommitRequest) CohortPlanForm {
	form := CohortPlanFormFromApi(resource.CohortPlanRequest)
	form.SnapshotVersion = resource.SnapshotVersion
	return form
}

func RebalanceFormFromApi(resource api.RebalanceRequest) CohortPlanForm {
	return CohortPlanForm{
		Strategy:    string(cohort.StrategyBalancedLoad),
		CohortCount: resource.CohortCount,
		Guardrails:  resource.Guardrails,
	}
}

type CohortUpdateForm struct {
	Name          *string
	PredecessorID *string
	Overrides     *plan.ResourceProfile
	Version       int
}

func CohortUpdateFormFromApi(resource api.CohortUpdate) CohortUpdateForm {
	return CohortUpdateForm{
		Name:          resource.Name,
		PredecessorID: resource.PredecessorID,
		Overrides:     resource.Overrides,
		Version:       resource.Version,
	}
}

type SizingForm struct {
	Profile   *sizing.NodeProfile
	PerCohort bool
}

func SizingFormFromApi(resource api.SizingRequest) SizingForm {
	return SizingForm{Profile: resource.Profile, PerCohort: resource.PerCohort}
}

type WavePlanForm struct {
	Strategy        string
	WaveSize        int
	PilotSize       int
	AcceptConflicts bool
}

func WavePlanFormFromApi(resource api.WavePlanRequest) WavePlanForm {
	return WavePlanForm{
		Strategy:  resource.Strategy,
		WaveSize:  resource.WaveSize,
		PilotSize: resource.PilotSize,
	}
}

func WaveCommitFormFromApi(resource api.WaveCommitRequest) WavePlanForm {
	form := WavePlanFormFromApi(resource.WavePlanRequest)
	form.AcceptConflicts = resource.AcceptConflicts
	return form
}
