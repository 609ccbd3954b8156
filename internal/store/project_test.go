package store_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/config"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func newProject(name string) model.Project {
	return model.Project{
		ID:     uuid.New(),
		Name:   name,
		Config: model.MakeJSONField(plan.DefaultProjectConfig()),
	}
}

var _ = Describe("project store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		Expect(store.AutoMigrate(db)).To(Succeed())

		s = store.NewStore(db)
		gormdb = db
	})

	AfterAll(func() {
		s.Close()
	})

	Context("create", func() {
		It("successfully creates a project", func() {
			p, err := s.Project().Create(context.TODO(), newProject("alpha"))
			Expect(err).To(BeNil())
			Expect(p.Version).To(Equal(1))
			Expect(p.Config.Data.WaveSize).To(Equal(plan.DefaultWaveSize))
		})

		It("refuses a duplicated name", func() {
			_, err := s.Project().Create(context.TODO(), newProject("alpha"))
			Expect(err).To(BeNil())
			_, err = s.Project().Create(context.TODO(), newProject("alpha"))
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE FROM projects;")
		})
	})

	Context("get and list", func() {
		It("returns not found for an unknown project", func() {
			_, err := s.Project().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		It("filters by name", func() {
			_, err := s.Project().Create(context.TODO(), newProject("alpha"))
			Expect(err).To(BeNil())
			_, err = s.Project().Create(context.TODO(), newProject("beta"))
			Expect(err).To(BeNil())

			all, err := s.Project().List(context.TODO(), store.NewProjectQueryFilter())
			Expect(err).To(BeNil())
			Expect(all).To(HaveLen(2))

			byName, err := s.Project().List(context.TODO(), store.NewProjectQueryFilter().ByName("beta"))
			Expect(err).To(BeNil())
			Expect(byName).To(HaveLen(1))
			Expect(byName[0].Name).To(Equal("beta"))

			like, err := s.Project().List(context.TODO(), store.NewProjectQueryFilter().WithNameLike("ALP"))
			Expect(err).To(BeNil())
			Expect(like).To(HaveLen(1))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE FROM projects;")
		})
	})

	Context("update config", func() {
		It("bumps the version", func() {
			p, err := s.Project().Create(context.TODO(), newProject("alpha"))
			Expect(err).To(BeNil())

			cfg := p.Config.Data
			cfg.WaveSize = 40
			updated, err := s.Project().UpdateConfig(context.TODO(), p.ID, cfg, p.Version)
			Expect(err).To(BeNil())
			Expect(updated.Version).To(Equal(2))
			Expect(updated.Config.Data.WaveSize).To(Equal(40))
			Expect(updated.UpdatedAt).NotTo(BeNil())
		})

		It("detects a stale version", func() {
			p, err := s.Project().Create(context.TODO(), newProject("alpha"))
			Expect(err).To(BeNil())

			_, err = s.Project().UpdateConfig(context.TODO(), p.ID, p.Config.Data, p.Version)
			Expect(err).To(BeNil())
			_, err = s.Project().UpdateConfig(context.TODO(), p.ID, p.Config.Data, p.Version)
			Expect(err).To(MatchError(store.ErrVersionConflict))
		})

		It("returns not found for an unknown project", func() {
			_, err := s.Project().UpdateConfig(context.TODO(), uuid.New(), plan.DefaultProjectConfig(), 1)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE FROM projects;")
		})
	})

	Context("delete", func() {
		It("removes the project with its snapshots, cohorts and waves", func() {
			p, err := s.Project().Create(context.TODO(), newProject("alpha"))
			Expect(err).To(BeNil())
			_, err = s.Snapshot().Create(context.TODO(), p.ID, inventory.Snapshot{})
			Expect(err).To(BeNil())
			_, err = s.Cohort().Create(context.TODO(), model.Cohort{ProjectID: p.ID, Name: "Cohort 1", Order: 1, Status: "planning"})
			Expect(err).To(BeNil())
			_, err = s.Wave().Create(context.TODO(), model.NewWave(p.ID, plan.Wave{Name: "Wave 1", Order: 1, State: plan.WavePlanned}))
			Expect(err).To(BeNil())

			Expect(s.Project().Delete(context.TODO(), p.ID)).To(Succeed())

			for _, table := range []string{"projects", "snapshots", "cohorts", "waves"} {
				count := -1
				Expect(gormdb.Raw("SELECT COUNT(*) FROM " + table).Scan(&count).Error).To(BeNil())
				Expect(count).To(BeZero(), table)
			}
		})
	})
})
