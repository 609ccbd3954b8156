package v1alpha1_test

import (
	"net/http"

	"github.com/google/uuid"
	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func createProject(name string) api.Project {
	rec := do(http.MethodPost, "/api/v1/projects", api.ProjectCreate{Name: name})
	Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
	return decode[api.Project](rec)
}

func createProjectWithEstate(name string) api.Project {
	project := createProject(name)
	rec := do(http.MethodPut, projectPath(project.ID, "/snapshot"), estate())
	Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
	return project
}

var _ = Describe("project handler", func() {
	It("answers the health probe", func() {
		rec := do(http.MethodGet, "/health", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("reports the version", func() {
		rec := do(http.MethodGet, "/api/v1/info", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode[api.Info](rec).VersionName).NotTo(BeEmpty())
	})

	Context("create", func() {
		It("fills in the default configuration", func() {
			project := createProject("handler-defaults")
			Expect(project.Version).To(Equal(1))
			Expect(project.Config.WaveSize).To(Equal(plan.DefaultProjectConfig().WaveSize))
		})

		It("rejects an invalid name", func() {
			rec := do(http.MethodPost, "/api/v1/projects", api.ProjectCreate{Name: "-bad/name"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an empty body", func() {
			rec := do(http.MethodPost, "/api/v1/projects", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects weights that do not add up", func() {
			cfg := plan.DefaultProjectConfig()
			cfg.Weights.Risk += 10
			rec := do(http.MethodPost, "/api/v1/projects", api.ProjectCreate{Name: "handler-weights", Config: &cfg})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("refuses a duplicate", func() {
			createProject("handler-dup")
			rec := do(http.MethodPost, "/api/v1/projects", api.ProjectCreate{Name: "handler-dup"})
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(decode[api.Status](rec).Message).NotTo(BeEmpty())
		})
	})

	Context("get", func() {
		It("returns 404 for an unknown project", func() {
			rec := do(http.MethodGet, projectPath(uuid.New(), ""), nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			rec := do(http.MethodGet, "/api/v1/projects/not-a-uuid", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("shows the latest snapshot version", func() {
			project := createProjectWithEstate("handler-get")
			rec := do(http.MethodGet, projectPath(project.ID, ""), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[api.Project](rec).SnapshotVersion).To(Equal(1))
		})
	})

	Context("config", func() {
		It("updates with the current version and refuses a stale one", func() {
			project := createProject("handler-config")
			cfg := project.Config
			cfg.WaveSize = 5

			rec := do(http.MethodPut, projectPath(project.ID, "/config"), api.ProjectConfigUpdate{Config: cfg, Version: 1})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(decode[api.Project](rec).Config.WaveSize).To(Equal(5))

			rec = do(http.MethodPut, projectPath(project.ID, "/config"), api.ProjectConfigUpdate{Config: cfg, Version: 1})
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})
	})

	Context("snapshots", func() {
		It("rejects a VM of an unknown tenant", func() {
			project := createProject("handler-dangling")
			inv := inventory.Snapshot{VMs: []inventory.VM{{ID: "vm-1", TenantID: "ghost"}}}
			rec := do(http.MethodPut, projectPath(project.ID, "/snapshot"), inv)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("lists and fetches versions", func() {
			project := createProjectWithEstate("handler-snapshots")
			rec := do(http.MethodGet, projectPath(project.ID, "/snapshots"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			snapshots := decode[[]api.Snapshot](rec)
			Expect(snapshots).To(HaveLen(1))
			Expect(snapshots[0].VMCount).To(Equal(6))

			rec = do(http.MethodGet, projectPath(project.ID, "/snapshots/1"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[inventory.Snapshot](rec).Tenants).To(HaveLen(3))
		})

		It("scores need an inventory", func() {
			project := createProject("handler-no-inventory")
			rec := do(http.MethodGet, projectPath(project.ID, "/scores"), nil)
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("scores every in-scope tenant", func() {
			project := createProjectWithEstate("handler-scores")
			rec := do(http.MethodGet, projectPath(project.ID, "/scores"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[api.ScoreList](rec).Scores).To(HaveLen(3))
		})
	})

	It("deletes a project", func() {
		project := createProject("handler-delete")
		rec := do(http.MethodDelete, projectPath(project.ID, ""), nil)
		Expect(rec.Code).To(Equal(http.StatusNoContent))

		rec = do(http.MethodGet, projectPath(project.ID, ""), nil)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
