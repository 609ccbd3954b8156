package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/events"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("cohort service", func() {
	var (
		ctx       context.Context
		writer    *testWriter
		producer  *events.EventProducer
		svc       *service.CohortService
		projectID uuid.UUID
		form      mappers.CohortPlanForm
	)

	BeforeEach(func() {
		ctx = context.TODO()
		writer = newTestWriter()
		producer = events.NewEventProducer(writer)
		svc = service.NewCohortService(s, producer)
		projectID = newProjectWithEstate(ctx, estate())
		form = mappers.CohortPlanForm{Strategy: "easiest_first", CohortCount: 2}
	})

	AfterEach(func() {
		Expect(producer.Close()).To(Succeed())
	})

	Context("preview", func() {
		It("writes nothing", func() {
			proposal, err := svc.PreviewCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())
			Expect(proposal.Cohorts).To(HaveLen(2))

			set, err := svc.ListCohorts(ctx, projectID)
			Expect(err).To(BeNil())
			Expect(set.Cohorts).To(BeEmpty())
		})

		It("rejects an unknown strategy", func() {
			form.Strategy = "alphabetical"
			_, err := svc.PreviewCohorts(ctx, projectID, form)
			Expect(err).NotTo(BeNil())
		})

		It("previews a rebalance of the committed cohorts", func() {
			_, err := svc.CommitCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())

			rebalancing, err := svc.PreviewRebalance(ctx, projectID, mappers.CohortPlanForm{CohortCount: 2})
			Expect(err).To(BeNil())
			Expect(rebalancing).NotTo(BeNil())
		})
	})

	Context("commit", func() {
		It("stores cohorts chained in order and writes a new snapshot", func() {
			result, err := svc.CommitCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())
			Expect(result.Cohorts).To(HaveLen(2))
			Expect(result.SnapshotVersion).To(Equal(2))

			first, second := result.Cohorts[0], result.Cohorts[1]
			Expect(first.Order).To(Equal(1))
			Expect(first.PredecessorID).To(BeEmpty())
			Expect(second.PredecessorID).To(Equal(first.ID))
			Expect(first.Status).To(Equal(string(plan.CohortPlanning)))

			members := 0
			for _, tenants := range result.Members {
				members += len(tenants)
			}
			Expect(members).To(Equal(4))

			set, err := svc.ListCohorts(ctx, projectID)
			Expect(err).To(BeNil())
			Expect(set.Cohorts).To(HaveLen(2))
			Expect(set.SnapshotVersion).To(Equal(2))
			Expect(set.Members[first.ID]).NotTo(BeEmpty())

			Eventually(writer.Types).Should(ContainElement(events.CohortsCommittedKind))
		})

		It("replaces the previous cohorts", func() {
			_, err := svc.CommitCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())

			form.CohortCount = 3
			result, err := svc.CommitCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())
			Expect(result.SnapshotVersion).To(Equal(3))

			set, err := svc.ListCohorts(ctx, projectID)
			Expect(err).To(BeNil())
			Expect(set.Cohorts).To(HaveLen(3))
		})

		It("returns the VMs of dropped waves to not started", func() {
			waves := service.NewWaveService(s, nil)
			_, err := waves.CommitWaves(ctx, projectID, mappers.WavePlanForm{Strategy: "by_tenant"})
			Expect(err).To(BeNil())
			_, err = service.NewExecutionService(s).ReportVMStatus(ctx, projectID, "vm-b1", inventory.StatusInProgress)
			Expect(err).To(BeNil())

			result, err := svc.CommitCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())

			remaining, err := waves.ListWaves(ctx, projectID, "")
			Expect(err).To(BeNil())
			Expect(remaining).To(BeEmpty())

			snapshot, err := service.NewProjectService(s).GetSnapshot(ctx, projectID, 0)
			Expect(err).To(BeNil())
			Expect(snapshot.Version).To(Equal(result.SnapshotVersion))
			statuses := map[string]inventory.MigrationStatus{}
			for _, vm := range snapshot.Inventory.Data.VMs {
				statuses[vm.ID] = vm.CurrentStatus()
			}
			Expect(statuses).To(HaveKeyWithValue("vm-a1", inventory.StatusNotStarted))
			Expect(statuses).To(HaveKeyWithValue("vm-d2", inventory.StatusNotStarted))
			Expect(statuses).To(HaveKeyWithValue("vm-b1", inventory.StatusInProgress))

			funnel, err := service.NewExecutionService(s).Funnel(ctx, projectID, "")
			Expect(err).To(BeNil())
			Expect(funnel.Counts[inventory.StatusAssigned]).To(Equal(0))
		})

		It("refuses a stale snapshot version", func() {
			form.SnapshotVersion = 7
			_, err := svc.CommitCohorts(ctx, projectID, form)
			var conflict *service.ErrConflict
			Expect(err).To(BeAssignableToTypeOf(conflict))
		})

		It("refuses to replace cohorts once one left planning", func() {
			result, err := svc.CommitCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())

			first := result.Cohorts[0]
			_, err = svc.TransitionCohort(ctx, projectID, first.ID, plan.CohortReady, first.Version)
			Expect(err).To(BeNil())

			_, err = svc.CommitCohorts(ctx, projectID, form)
			var conflict *service.ErrConflict
			Expect(err).To(BeAssignableToTypeOf(conflict))
		})
	})

	Context("lifecycle", func() {
		var result *service.CohortCommitResult

		BeforeEach(func() {
			var err error
			result, err = svc.CommitCohorts(ctx, projectID, form)
			Expect(err).To(BeNil())
		})

		It("moves a cohort to ready and bumps its version", func() {
			first := result.Cohorts[0]
			updated, err := svc.TransitionCohort(ctx, projectID, first.ID, plan.CohortReady, first.Version)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(string(plan.CohortReady)))
			Expect(updated.Version).To(Equal(first.Version + 1))

			Eventually(writer.Types).Should(ContainElement(events.CohortTransitionedKind))
		})

		It("gates execution on the predecessor", func() {
			second := result.Cohorts[1]
			ready, err := svc.TransitionCohort(ctx, projectID, second.ID, plan.CohortReady, second.Version)
			Expect(err).To(BeNil())

			_, err = svc.TransitionCohort(ctx, projectID, second.ID, plan.CohortExecuting, ready.Version)
			var gated *plan.ErrCohortGated
			Expect(err).To(BeAssignableToTypeOf(gated))
		})

		It("refuses a stale version", func() {
			first := result.Cohorts[0]
			_, err := svc.TransitionCohort(ctx, projectID, first.ID, plan.CohortReady, first.Version+1)
			var conflict *service.ErrConflict
			Expect(err).To(BeAssignableToTypeOf(conflict))
		})

		It("refuses an invalid transition", func() {
			first := result.Cohorts[0]
			_, err := svc.TransitionCohort(ctx, projectID, first.ID, plan.CohortComplete, first.Version)
			var invalid *plan.ErrInvalidTransition
			Expect(err).To(BeAssignableToTypeOf(invalid))
		})

		It("returns not found for a cohort of another project", func() {
			other := newProjectWithEstate(ctx, estate())
			_, err := svc.GetCohort(ctx, other, result.Cohorts[0].ID)
			var notFound *service.ErrResourceNotFound
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})

		It("renames a cohort and clears its gate", func() {
			second := result.Cohorts[1]
			name := "bulk"
			none := ""
			updated, err := svc.UpdateCohort(ctx, projectID, second.ID, mappers.CohortUpdateForm{
				Name:          &name,
				PredecessorID: &none,
				Version:       second.Version,
			})
			Expect(err).To(BeNil())
			Expect(updated.Name).To(Equal("bulk"))
			Expect(updated.PredecessorID).To(BeEmpty())
		})

		It("refuses a cohort as its own predecessor", func() {
			first := result.Cohorts[0]
			self := first.ID
			_, err := svc.UpdateCohort(ctx, projectID, first.ID, mappers.CohortUpdateForm{PredecessorID: &self, Version: first.Version})
			var invalid *service.ErrInvalidRequest
			Expect(err).To(BeAssignableToTypeOf(invalid))
		})

		It("refuses a predecessor that loops back", func() {
			first, second := result.Cohorts[0], result.Cohorts[1]
			loop := second.ID
			_, err := svc.UpdateCohort(ctx, projectID, first.ID, mappers.CohortUpdateForm{PredecessorID: &loop, Version: first.Version})
			var invalid *service.ErrInvalidRequest
			Expect(err).To(BeAssignableToTypeOf(invalid))
		})
	})
})
