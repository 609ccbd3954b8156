package mappers

import (
	"sort"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
)

func ProjectToApi(p model.Project) api.Project {
	out := api.Project{
		ID:        p.ID,
		Name:      p.Name,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Config != nil {
		out.Config = p.Config.Data
	}
	if latest := p.LatestSnapshot(); latest != nil {
		out.SnapshotVersion = latest.Version
	}
	return out
}

func ProjectListToApi(projects model.ProjectList) api.ProjectList {
	out := make(api.ProjectList, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectToApi(p))
	}
	return out
}

func SnapshotToApi(s model.Snapshot) api.Snapshot {
	out := api.Snapshot{
		ProjectID: s.ProjectID,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
	}
	if s.Inventory != nil {
		out.TenantCount = len(s.Inventory.Data.Tenants)
		out.VMCount = len(s.Inventory.Data.VMs)
		out.NodeCount = len(s.Inventory.Data.TargetNodes)
	}
	return out
}

func SnapshotListToApi(snapshots []model.Snapshot) []api.Snapshot {
	out := make([]api.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, SnapshotToApi(s))
	}
	return out
}

// CohortMembers maps cohort id to the sorted ids of its tenants.
func CohortMembers(s *inventory.Snapshot) map[string][]string {
	out := make(map[string][]string)
	if s == nil {
		return out
	}
	for _, t := range s.Tenants {
		if id, ok := t.Cohort.ID(); ok {
			out[id] = append(out[id], t.ID)
		}
	}
	for id := range out {
		sort.Strings(out[id])
	}
	return out
}

func CohortToApi(c model.Cohort, members map[string][]string) api.Cohort {
	tenants := members[c.ID]
	if tenants == nil {
		tenants = []string{}
	}
	return api.Cohort{
		Cohort:    c.ToPlan(),
		Strategy:  c.Strategy,
		TenantIDs: tenants,
	}
}

func CohortListToApi(cohorts model.CohortList, members map[string][]string) api.CohortList {
	out := make(api.CohortList, 0, len(cohorts))
	for _, c := range cohorts {
		out = append(out, CohortToApi(c, members))
	}
	return out
}

func WaveToApi(w model.Wave) api.Wave {
	return api.Wave{Wave: w.ToPlan(), Preflight: w.LastPreflight()}
}

func WaveListToApi(waves model.WaveList) api.WaveList {
	out := make(api.WaveList, 0, len(waves))
	for _, w := range waves {
		out = append(out, WaveToApi(w))
	}
	return out
}

func ScoresToApi(weights scoring.Weights, scores []scoring.Breakdown) api.ScoreList {
	if scores == nil {
		scores = []scoring.Breakdown{}
	}
	return api.ScoreList{Weights: weights, Scores: scores}
}

func CohortCommitToApi(cohorts model.CohortList, members map[string][]string, unplaceable []cohort.Unplaceable, snapshotVersion int) api.CohortCommit {
	if unplaceable == nil {
		unplaceable = []cohort.Unplaceable{}
	}
	return api.CohortCommit{
		Cohorts:         CohortListToApi(cohorts, members),
		Unplaceable:     unplaceable,
		SnapshotVersion: snapshotVersion,
	}
}

func SizingToApi(project *sizing.Result, cohorts []sizing.CohortResult) api.Sizing {
	return api.Sizing{Project: project, Cohorts: cohorts}
}

func VMStatusToApi(vmID string, status inventory.MigrationStatus, snapshotVersion int) api.VMStatus {
	return api.VMStatus{VMID: vmID, Status: string(status), SnapshotVersion: snapshotVersion}
}

func ExportObjectToApi(bucket, key string, size int64) api.ExportPublished {
	return api.ExportPublished{Bucket: bucket, Key: key, Size: size}
}
