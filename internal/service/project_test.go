package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("project service", Ordered, func() {
	var (
		ctx context.Context
		svc *service.ProjectService
	)

	BeforeAll(func() {
		ctx = context.TODO()
		svc = service.NewProjectService(s)
	})

	Context("projects", func() {
		It("creates a project with version 1", func() {
			project, err := svc.CreateProject(ctx, mappers.ProjectCreateForm{Name: "create-me", Config: plan.DefaultProjectConfig()})
			Expect(err).To(BeNil())
			Expect(project.ID).NotTo(Equal(uuid.Nil))
			Expect(project.Version).To(Equal(1))
		})

		It("refuses a duplicate name", func() {
			_, err := svc.CreateProject(ctx, mappers.ProjectCreateForm{Name: "dup", Config: plan.DefaultProjectConfig()})
			Expect(err).To(BeNil())

			_, err = svc.CreateProject(ctx, mappers.ProjectCreateForm{Name: "dup", Config: plan.DefaultProjectConfig()})
			Expect(err).NotTo(BeNil())
			var conflict *service.ErrConflict
			Expect(err).To(BeAssignableToTypeOf(conflict))
		})

		It("returns not found for an unknown project", func() {
			_, err := svc.GetProject(ctx, uuid.New())
			Expect(err).NotTo(BeNil())
			var notFound *service.ErrResourceNotFound
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})

		It("attaches the latest snapshot", func() {
			id := newProjectWithEstate(ctx, estate())

			project, err := svc.GetProject(ctx, id)
			Expect(err).To(BeNil())
			Expect(project.LatestSnapshot()).NotTo(BeNil())
			Expect(project.LatestSnapshot().Version).To(Equal(1))
		})

		It("updates the config when the version matches", func() {
			id := newProjectWithEstate(ctx, estate())
			cfg := plan.DefaultProjectConfig()
			cfg.WaveSize = 10

			updated, err := svc.UpdateProjectConfig(ctx, id, cfg, 1)
			Expect(err).To(BeNil())
			Expect(updated.Version).To(Equal(2))
			Expect(updated.Config.Data.WaveSize).To(Equal(10))

			_, err = svc.UpdateProjectConfig(ctx, id, cfg, 1)
			var conflict *service.ErrConflict
			Expect(err).To(BeAssignableToTypeOf(conflict))
		})

		It("deletes a project with its snapshots", func() {
			id := newProjectWithEstate(ctx, estate())
			Expect(svc.DeleteProject(ctx, id)).To(Succeed())

			_, err := svc.GetProject(ctx, id)
			var notFound *service.ErrResourceNotFound
			Expect(err).To(BeAssignableToTypeOf(notFound))
		})
	})

	Context("snapshots", func() {
		It("rejects an inventory with a dangling tenant", func() {
			project, err := svc.CreateProject(ctx, mappers.ProjectCreateForm{Name: "dangling", Config: plan.DefaultProjectConfig()})
			Expect(err).To(BeNil())

			inv := inventory.Snapshot{VMs: []inventory.VM{{ID: "vm-1", TenantID: "ghost"}}}
			_, err = svc.ImportSnapshot(ctx, project.ID, inv)
			var invalid *service.ErrInvalidRequest
			Expect(err).To(BeAssignableToTypeOf(invalid))
		})

		It("numbers imports one after another", func() {
			id := newProjectWithEstate(ctx, estate())
			second, err := svc.ImportSnapshot(ctx, id, estate())
			Expect(err).To(BeNil())
			Expect(second.Version).To(Equal(2))

			snapshots, err := svc.ListSnapshots(ctx, id, 0)
			Expect(err).To(BeNil())
			Expect(snapshots).To(HaveLen(2))

			first, err := svc.GetSnapshot(ctx, id, 1)
			Expect(err).To(BeNil())
			Expect(first.Version).To(Equal(1))

			latest, err := svc.GetSnapshot(ctx, id, 0)
			Expect(err).To(BeNil())
			Expect(latest.Version).To(Equal(2))
		})
	})

	Context("scores", func() {
		It("needs a snapshot", func() {
			project, err := svc.CreateProject(ctx, mappers.ProjectCreateForm{Name: "no-snapshot", Config: plan.DefaultProjectConfig()})
			Expect(err).To(BeNil())

			_, err = svc.Scores(ctx, project.ID)
			var noSnapshot *service.ErrNoSnapshot
			Expect(err).To(BeAssignableToTypeOf(noSnapshot))
		})

		It("scores every in-scope tenant", func() {
			id := newProjectWithEstate(ctx, estate())

			result, err := svc.Scores(ctx, id)
			Expect(err).To(BeNil())
			Expect(result.Scores).To(HaveLen(4))
			for _, b := range result.Scores {
				Expect(b.TenantID).NotTo(Equal("tenant-e"))
				Expect(b.Score).To(BeNumerically(">=", 0))
				Expect(b.Score).To(BeNumerically("<=", 100))
			}
		})
	})
})
