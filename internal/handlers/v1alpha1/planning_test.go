package v1alpha1_test

import (
	"fmt"
	"net/http"

	api "github.com/kubev2v/migration-wave-planner/api/v1alpha1"
	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/sizing"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("planning handlers", func() {
	var project api.Project
	counter := 0

	BeforeEach(func() {
		counter++
		project = createProjectWithEstate(fmt.Sprintf("handler-planning-%d", counter))
	})

	Context("cohorts", func() {
		commit := func() api.CohortCommit {
			body := api.CohortCommitRequest{CohortPlanRequest: api.CohortPlanRequest{Strategy: "easiest_first", CohortCount: 3}}
			rec := do(http.MethodPost, projectPath(project.ID, "/cohorts"), body)
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
			return decode[api.CohortCommit](rec)
		}

		It("previews a proposal", func() {
			body := api.CohortPlanRequest{Strategy: "balanced_load", CohortCount: 2}
			rec := do(http.MethodPost, projectPath(project.ID, "/cohorts/preview"), body)
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(decode[cohort.Proposal](rec).Cohorts).To(HaveLen(2))
		})

		It("rejects an unknown strategy", func() {
			body := api.CohortPlanRequest{Strategy: "alphabetical"}
			rec := do(http.MethodPost, projectPath(project.ID, "/cohorts/preview"), body)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("commits and lists cohorts with members", func() {
			committed := commit()
			Expect(committed.Cohorts).To(HaveLen(3))
			Expect(committed.SnapshotVersion).To(Equal(2))

			rec := do(http.MethodGet, projectPath(project.ID, "/cohorts"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			cohorts := decode[api.CohortList](rec)
			Expect(cohorts).To(HaveLen(3))
			for _, c := range cohorts {
				Expect(c.TenantIDs).To(HaveLen(1))
			}

			rec = do(http.MethodGet, projectPath(project.ID, "/cohorts/"+cohorts[0].ID), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[api.Cohort](rec).TenantIDs).To(Equal(cohorts[0].TenantIDs))
		})

		It("maps lifecycle errors", func() {
			committed := commit()
			second := committed.Cohorts[1]

			rec := do(http.MethodPost, projectPath(project.ID, "/cohorts/"+second.ID+"/transition"),
				api.CohortTransition{Status: string(plan.CohortReady), Version: second.Version + 5})
			Expect(rec.Code).To(Equal(http.StatusConflict))

			rec = do(http.MethodPost, projectPath(project.ID, "/cohorts/"+second.ID+"/transition"),
				api.CohortTransition{Status: string(plan.CohortReady), Version: second.Version})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			ready := decode[api.Cohort](rec)

			rec = do(http.MethodPost, projectPath(project.ID, "/cohorts/"+second.ID+"/transition"),
				api.CohortTransition{Status: string(plan.CohortExecuting), Version: ready.Version})
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))

			rec = do(http.MethodPost, projectPath(project.ID, "/cohorts/"+second.ID+"/transition"),
				api.CohortTransition{Status: "finished", Version: ready.Version})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("updates a cohort name", func() {
			committed := commit()
			first := committed.Cohorts[0]
			name := "pilot"
			rec := do(http.MethodPatch, projectPath(project.ID, "/cohorts/"+first.ID), api.CohortUpdate{Name: &name, Version: first.Version})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(decode[api.Cohort](rec).Name).To(Equal("pilot"))
		})

		It("returns 404 for an unknown cohort", func() {
			rec := do(http.MethodGet, projectPath(project.ID, "/cohorts/missing"), nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("estimate and sizing", func() {
		It("estimates the project", func() {
			rec := do(http.MethodGet, projectPath(project.ID, "/estimate"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode[api.Estimate](rec).VMs).To(HaveLen(6))
		})

		It("sizes with a profile and refuses without one", func() {
			rec := do(http.MethodPost, projectPath(project.ID, "/sizing"), api.SizingRequest{Profile: &sizing.NodeProfile{CPUCores: 16, MemoryGB: 128}})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(decode[api.Sizing](rec).Project.RequiredNodes).To(BeNumerically(">=", 1))

			rec = do(http.MethodPost, projectPath(project.ID, "/sizing"), nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("waves and execution", func() {
		commitWaves := func() api.WaveList {
			body := api.WaveCommitRequest{WavePlanRequest: api.WavePlanRequest{Strategy: "by_tenant"}}
			rec := do(http.MethodPost, projectPath(project.ID, "/waves"), body)
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
			return decode[api.WaveList](rec)
		}

		It("previews without storing", func() {
			rec := do(http.MethodPost, projectPath(project.ID, "/waves/preview"), api.WavePlanRequest{Strategy: "by_risk", WaveSize: 2})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(decode[api.WavePlan](rec).Waves).NotTo(BeEmpty())

			rec = do(http.MethodGet, projectPath(project.ID, "/waves"), nil)
			Expect(decode[api.WaveList](rec)).To(BeEmpty())
		})

		It("commits, checks and drives a wave", func() {
			waves := commitWaves()
			Expect(waves).NotTo(BeEmpty())
			first := waves[0]
			path := projectPath(project.ID, "/waves/"+first.ID.String())

			rec := do(http.MethodPost, path+"/preflight", nil)
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			report := decode[plan.PreflightReport](rec)
			Expect(report.Blocked()).To(BeFalse())

			rec = do(http.MethodPost, path+"/transition", api.WaveTransition{State: string(plan.WaveExecuting), Version: first.Version})
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))

			rec = do(http.MethodPost, path+"/transition", api.WaveTransition{State: string(plan.WavePreChecksPassed), Version: first.Version})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			passed := decode[api.Wave](rec)
			Expect(passed.Preflight).NotTo(BeNil())

			rec = do(http.MethodDelete, path, nil)
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("deletes a planned wave", func() {
			waves := commitWaves()
			rec := do(http.MethodDelete, projectPath(project.ID, "/waves/"+waves[0].ID.String()), nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(http.MethodGet, projectPath(project.ID, "/waves/"+waves[0].ID.String()), nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("tracks VM status reports in the funnel", func() {
			commitWaves()

			rec := do(http.MethodPost, projectPath(project.ID, "/vms/vm-a1/status"), api.VMStatusUpdate{Status: string(inventory.StatusMigrated)})
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))

			rec = do(http.MethodPost, projectPath(project.ID, "/vms/vm-a1/status"), api.VMStatusUpdate{Status: string(inventory.StatusInProgress)})
			Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
			Expect(decode[api.VMStatus](rec).Status).To(Equal(string(inventory.StatusInProgress)))

			rec = do(http.MethodPost, projectPath(project.ID, "/vms/vm-zz/status"), api.VMStatusUpdate{Status: string(inventory.StatusAssigned)})
			Expect(rec.Code).To(Equal(http.StatusNotFound))

			rec = do(http.MethodGet, projectPath(project.ID, "/funnel"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			funnel := decode[api.Funnel](rec)
			Expect(funnel.Total).To(Equal(6))
			Expect(funnel.Counts[inventory.StatusInProgress]).To(Equal(1))
			Expect(funnel.Counts[inventory.StatusAssigned]).To(Equal(5))
		})
	})

	Context("export", func() {
		It("downloads csv", func() {
			rec := do(http.MethodGet, projectPath(project.ID, "/export?format=csv"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("text/csv"))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("plan-v1.csv"))
			Expect(rec.Body.String()).To(ContainSubstring("vm-a1"))
		})

		It("downloads xlsx by default", func() {
			rec := do(http.MethodGet, projectPath(project.ID, "/export"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("plan-v1.xlsx"))
			Expect(rec.Body.Len()).To(BeNumerically(">", 0))
		})

		It("rejects an unknown format", func() {
			rec := do(http.MethodGet, projectPath(project.ID, "/export?format=pdf"), nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("reports publishing as unavailable without object storage", func() {
			rec := do(http.MethodPost, projectPath(project.ID, "/export/publish"), nil)
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
