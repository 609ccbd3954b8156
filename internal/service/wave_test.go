package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/events"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("wave service", func() {
	var (
		ctx       context.Context
		writer    *testWriter
		producer  *events.EventProducer
		svc       *service.WaveService
		projects  *service.ProjectService
		projectID uuid.UUID
		form      mappers.WavePlanForm
	)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	statusOf := func(id uuid.UUID, vmID string) inventory.MigrationStatus {
		snapshot, err := projects.GetSnapshot(ctx, id, 0)
		Expect(err).To(BeNil())
		vm, ok := snapshot.Inventory.Data.VM(vmID)
		Expect(ok).To(BeTrue())
		return vm.CurrentStatus()
	}

	BeforeEach(func() {
		ctx = context.TODO()
		writer = newTestWriter()
		producer = events.NewEventProducer(writer)
		svc = service.NewWaveService(s, producer, service.WithClock(func() time.Time { return now }))
		projects = service.NewProjectService(s)
		projectID = newProjectWithEstate(ctx, estate())
		form = mappers.WavePlanForm{Strategy: "by_tenant"}
	})

	AfterEach(func() {
		Expect(producer.Close()).To(Succeed())
	})

	Context("build", func() {
		It("previews without touching statuses", func() {
			result, err := svc.PreviewWaves(ctx, projectID, form)
			Expect(err).To(BeNil())
			Expect(result.Waves).NotTo(BeEmpty())

			waves, err := svc.ListWaves(ctx, projectID, "")
			Expect(err).To(BeNil())
			Expect(waves).To(BeEmpty())
			Expect(statusOf(projectID, "vm-a1")).To(Equal(inventory.StatusNotStarted))
		})

		It("commits waves and marks their VMs assigned", func() {
			result, err := svc.CommitWaves(ctx, projectID, form)
			Expect(err).To(BeNil())
			Expect(result.Waves).NotTo(BeEmpty())
			Expect(result.SnapshotVersion).To(Equal(2))

			placed := 0
			for _, w := range result.Waves {
				Expect(w.State).To(Equal(string(plan.WavePlanned)))
				placed += len(w.ToPlan().VMs)
			}
			Expect(placed).To(Equal(8))

			Expect(statusOf(projectID, "vm-a1")).To(Equal(inventory.StatusAssigned))
			Expect(statusOf(projectID, "vm-e1")).To(Equal(inventory.StatusNotStarted))

			Eventually(writer.Types).Should(ContainElement(events.WavesCommittedKind))
		})

		It("replaces planned waves on a second commit", func() {
			first, err := svc.CommitWaves(ctx, projectID, form)
			Expect(err).To(BeNil())

			second, err := svc.CommitWaves(ctx, projectID, form)
			Expect(err).To(BeNil())
			Expect(second.Build.Replaced).To(HaveLen(len(first.Waves)))

			waves, err := svc.ListWaves(ctx, projectID, "")
			Expect(err).To(BeNil())
			Expect(waves).To(HaveLen(len(second.Waves)))
		})

		It("fails on a dependency cycle and writes nothing", func() {
			inv := estate()
			inv.VMs[0].DependsOn = []string{"vm-a2"}
			inv.VMs[1].DependsOn = []string{"vm-a1"}
			cyclic := newProjectWithEstate(ctx, inv)

			_, err := svc.CommitWaves(ctx, cyclic, form)
			var cycle *wave.ErrDependencyCycle
			Expect(err).To(BeAssignableToTypeOf(cycle))

			waves, err := svc.ListWaves(ctx, cyclic, "")
			Expect(err).To(BeNil())
			Expect(waves).To(BeEmpty())
			Expect(statusOf(cyclic, "vm-a1")).To(Equal(inventory.StatusNotStarted))
		})

		It("rejects an unknown strategy", func() {
			form.Strategy = "random"
			_, err := svc.PreviewWaves(ctx, projectID, form)
			var unknown *wave.ErrUnknownStrategy
			Expect(err).To(BeAssignableToTypeOf(unknown))
		})
	})

	Context("lifecycle", func() {
		var planned waveRef
		BeforeEach(func() {
			result, err := svc.CommitWaves(ctx, projectID, form)
			Expect(err).To(BeNil())
			planned = waveRef{id: result.Waves[0].ID, version: result.Waves[0].Version}
		})

		It("passes pre-flight and stores the report", func() {
			updated, err := svc.TransitionWave(ctx, projectID, planned.id, plan.WavePreChecksPassed, planned.version)
			Expect(err).To(BeNil())
			Expect(updated.State).To(Equal(string(plan.WavePreChecksPassed)))
			Expect(updated.LastPreflight()).NotTo(BeNil())
			Expect(updated.LastPreflight().Blocked()).To(BeFalse())

			Eventually(writer.Types).Should(ContainElement(events.WaveTransitionedKind))
		})

		It("keeps the failing report when a blocker fails", func() {
			unreachable := service.NewWaveService(s, nil, service.WithAgentReachable(false))
			_, err := unreachable.TransitionWave(ctx, projectID, planned.id, plan.WavePreChecksPassed, planned.version)
			var failed *plan.ErrPreflightFailed
			Expect(err).To(BeAssignableToTypeOf(failed))

			stored, err := svc.GetWave(ctx, projectID, planned.id)
			Expect(err).To(BeNil())
			Expect(stored.State).To(Equal(string(plan.WavePlanned)))
			Expect(stored.Version).To(Equal(planned.version))
			Expect(stored.LastPreflight()).NotTo(BeNil())
			Expect(stored.LastPreflight().Blocked()).To(BeTrue())
		})

		It("runs pre-flight on demand", func() {
			report, err := svc.RunPreflight(ctx, projectID, planned.id)
			Expect(err).To(BeNil())
			Expect(report.WaveID).To(Equal(planned.id))
			Expect(report.Results).NotTo(BeEmpty())
		})

		It("refuses to skip pre-flight", func() {
			_, err := svc.TransitionWave(ctx, projectID, planned.id, plan.WaveExecuting, planned.version)
			Expect(err).NotTo(BeNil())
		})

		It("refuses a stale version", func() {
			_, err := svc.TransitionWave(ctx, projectID, planned.id, plan.WaveCancelled, planned.version+1)
			var conflict *service.ErrConflict
			Expect(err).To(BeAssignableToTypeOf(conflict))
		})

		It("deletes a planned wave and releases its VMs", func() {
			stored, err := svc.GetWave(ctx, projectID, planned.id)
			Expect(err).To(BeNil())
			vmID := stored.ToPlan().VMs[0].VMID
			Expect(statusOf(projectID, vmID)).To(Equal(inventory.StatusAssigned))

			Expect(svc.DeleteWave(ctx, projectID, planned.id)).To(Succeed())
			Expect(statusOf(projectID, vmID)).To(Equal(inventory.StatusNotStarted))

			_, err = svc.GetWave(ctx, projectID, planned.id)
			var notFound *service.ErrResourceNotFound
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})

		It("refuses to delete a wave past planned", func() {
			_, err := svc.TransitionWave(ctx, projectID, planned.id, plan.WavePreChecksPassed, planned.version)
			Expect(err).To(BeNil())

			err = svc.DeleteWave(ctx, projectID, planned.id)
			var notDeletable *plan.ErrWaveNotDeletable
			Expect(err).To(BeAssignableToTypeOf(notDeletable))
		})
	})
})

type waveRef struct {
	id      uuid.UUID
	version int
}
