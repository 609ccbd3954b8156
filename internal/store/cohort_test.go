package store_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/config"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("cohort store", Ordered, func() {
	var (
		s         store.Store
		gormdb    *gorm.DB
		projectID uuid.UUID
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

	BeforeEach(func() {
		projectID = uuid.New()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM cohorts;")
	})

	It("lists cohorts of a project by order", func() {
		for _, order := range []int{2, 1, 3} {
			_, err := s.Cohort().Create(context.TODO(), model.NewCohort(projectID, plan.Cohort{Order: order, Status: plan.CohortPlanning}, "easiest_first"))
			Expect(err).To(BeNil())
		}
		_, err := s.Cohort().Create(context.TODO(), model.NewCohort(uuid.New(), plan.Cohort{Order: 1, Status: plan.CohortPlanning}, ""))
		Expect(err).To(BeNil())

		cohorts, err := s.Cohort().List(context.TODO(), store.NewCohortQueryFilter().ByProjectID(projectID))
		Expect(err).To(BeNil())
		Expect(cohorts).To(HaveLen(3))
		Expect([]int{cohorts[0].Order, cohorts[1].Order, cohorts[2].Order}).To(Equal([]int{1, 2, 3}))
		Expect(cohorts[0].ID).NotTo(BeEmpty())
		Expect(cohorts[0].Version).To(Equal(1))
	})

	It("refuses a duplicated order within a project", func() {
		_, err := s.Cohort().Create(context.TODO(), model.NewCohort(projectID, plan.Cohort{Order: 1, Status: plan.CohortPlanning}, ""))
		Expect(err).To(BeNil())
		_, err = s.Cohort().Create(context.TODO(), model.NewCohort(projectID, plan.Cohort{Order: 1, Status: plan.CohortPlanning}, ""))
		Expect(err).To(MatchError(store.ErrDuplicateKey))
	})

	It("updates with optimistic versioning", func() {
		created, err := s.Cohort().Create(context.TODO(), model.NewCohort(projectID, plan.Cohort{Name: "Cohort 1", Order: 1, Status: plan.CohortPlanning}, ""))
		Expect(err).To(BeNil())

		stale := *created
		c := created.ToPlan()
		Expect(c.Transition(plan.CohortReady, nil)).To(Succeed())
		created.Apply(c)

		updated, err := s.Cohort().Update(context.TODO(), *created)
		Expect(err).To(BeNil())
		Expect(updated.Version).To(Equal(2))
		Expect(updated.Status).To(Equal(string(plan.CohortReady)))
		Expect(updated.ProjectID).To(Equal(projectID))

		stale.Status = string(plan.CohortExecuting)
		_, err = s.Cohort().Update(context.TODO(), stale)
		Expect(err).To(MatchError(store.ErrVersionConflict))
	})

	It("round trips overrides", func() {
		slots := 3
		c := plan.Cohort{Order: 1, Status: plan.CohortPlanning, Overrides: plan.ResourceProfile{
			Overcommit: &plan.OvercommitProfile{CPU: "1:2", Memory: "1:1"},
			AgentSlots: &slots,
		}}
		created, err := s.Cohort().Create(context.TODO(), model.NewCohort(projectID, c, ""))
		Expect(err).To(BeNil())

		got, err := s.Cohort().Get(context.TODO(), created.ID)
		Expect(err).To(BeNil())
		out := got.ToPlan()
		Expect(out.Overrides.Overcommit.CPU).To(Equal("1:2"))
		Expect(*out.Overrides.AgentSlots).To(Equal(3))
	})

	It("deletes the cohorts of one project", func() {
		_, err := s.Cohort().Create(context.TODO(), model.NewCohort(projectID, plan.Cohort{Order: 1}, ""))
		Expect(err).To(BeNil())
		other := uuid.New()
		_, err = s.Cohort().Create(context.TODO(), model.NewCohort(other, plan.Cohort{Order: 1}, ""))
		Expect(err).To(BeNil())

		Expect(s.Cohort().DeleteByProject(context.TODO(), projectID)).To(Succeed())

		left, err := s.Cohort().List(context.TODO(), store.NewCohortQueryFilter())
		Expect(err).To(BeNil())
		Expect(left).To(HaveLen(1))
		Expect(left[0].ProjectID).To(Equal(other))
	})

	It("returns not found for an unknown cohort", func() {
		_, err := s.Cohort().Get(context.TODO(), "missing")
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})
})
