package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/config"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/kubev2v/migration-wave-planner/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("wave store", Ordered, func() {
	var (
		s         store.Store
		gormdb    *gorm.DB
		projectID uuid.UUID
		now       time.Time
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		Expect(store.AutoMigrate(db)).To(Succeed())

		s = store.NewStore(db)
		gormdb = db
		now = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		projectID = uuid.New()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM waves;")
	})

	newWave := func(order int, cohortID string) plan.Wave {
		return plan.Wave{
			ID:        uuid.New(),
			CohortID:  cohortID,
			Name:      "Wave",
			Order:     order,
			State:     plan.WavePlanned,
			VMs:       []plan.WaveVM{{VMID: "vm-1", Order: 1}, {VMID: "vm-2", Order: 2}},
			CreatedAt: now,
		}
	}

	It("stores the ordered VM list", func() {
		w := newWave(1, "c1")
		created, err := s.Wave().Create(context.TODO(), model.NewWave(projectID, w))
		Expect(err).To(BeNil())

		got, err := s.Wave().Get(context.TODO(), created.ID)
		Expect(err).To(BeNil())
		gotPlan := got.ToPlan()
		Expect(gotPlan.VMIDs()).To(Equal([]string{"vm-1", "vm-2"}))
		Expect(got.CohortID).To(Equal("c1"))
		Expect(got.Version).To(Equal(1))
	})

	It("filters by project, cohort and state", func() {
		for i, cohort := range []string{"c1", "c1", "c2"} {
			_, err := s.Wave().Create(context.TODO(), model.NewWave(projectID, newWave(3-i, cohort)))
			Expect(err).To(BeNil())
		}
		_, err := s.Wave().Create(context.TODO(), model.NewWave(uuid.New(), newWave(1, "c1")))
		Expect(err).To(BeNil())

		all, err := s.Wave().List(context.TODO(), store.NewWaveQueryFilter().ByProjectID(projectID))
		Expect(err).To(BeNil())
		Expect(all).To(HaveLen(3))
		Expect(all[0].Order).To(Equal(1))

		c1, err := s.Wave().List(context.TODO(), store.NewWaveQueryFilter().ByProjectID(projectID).ByCohortID("c1"))
		Expect(err).To(BeNil())
		Expect(c1).To(HaveLen(2))

		executing, err := s.Wave().List(context.TODO(), store.NewWaveQueryFilter().ByProjectID(projectID).ByState(string(plan.WaveExecuting)))
		Expect(err).To(BeNil())
		Expect(executing).To(BeEmpty())

		byID, err := s.Wave().List(context.TODO(), store.NewWaveQueryFilter().ByID([]uuid.UUID{all[0].ID}))
		Expect(err).To(BeNil())
		Expect(byID).To(HaveLen(1))
	})

	It("updates state and keeps the stored pre-flight report", func() {
		created, err := s.Wave().Create(context.TODO(), model.NewWave(projectID, newWave(1, "")))
		Expect(err).To(BeNil())

		report := &plan.PreflightReport{WaveID: created.ID, EvaluatedAt: now}
		created.Preflight = model.MakeJSONField(report)
		withReport, err := s.Wave().Update(context.TODO(), *created)
		Expect(err).To(BeNil())
		Expect(withReport.Version).To(Equal(2))

		w := withReport.ToPlan()
		Expect(w.Transition(plan.WavePreChecksPassed, plan.TransitionGuard{Preflight: report}, now)).To(Succeed())
		withReport.Apply(w)
		updated, err := s.Wave().Update(context.TODO(), *withReport)
		Expect(err).To(BeNil())
		Expect(updated.State).To(Equal(string(plan.WavePreChecksPassed)))
		Expect(updated.LastPreflight()).NotTo(BeNil())
		Expect(updated.LastPreflight().WaveID).To(Equal(created.ID))

		_, err = s.Wave().Update(context.TODO(), *withReport)
		Expect(err).To(MatchError(store.ErrVersionConflict))
	})

	It("stores a pre-flight report without a version bump", func() {
		created, err := s.Wave().Create(context.TODO(), model.NewWave(projectID, newWave(1, "")))
		Expect(err).To(BeNil())

		report := &plan.PreflightReport{WaveID: created.ID, EvaluatedAt: now, Results: []plan.CheckResult{
			{ID: plan.CheckAgentReachable, Severity: plan.SeverityBlocker, Passed: false},
		}}
		Expect(s.Wave().SetPreflight(context.TODO(), created.ID, report)).To(Succeed())

		got, err := s.Wave().Get(context.TODO(), created.ID)
		Expect(err).To(BeNil())
		Expect(got.Version).To(Equal(1))
		Expect(got.LastPreflight().Blocked()).To(BeTrue())

		Expect(s.Wave().SetPreflight(context.TODO(), uuid.New(), report)).To(MatchError(store.ErrRecordNotFound))
	})

	It("deletes a wave", func() {
		created, err := s.Wave().Create(context.TODO(), model.NewWave(projectID, newWave(1, "")))
		Expect(err).To(BeNil())
		Expect(s.Wave().Delete(context.TODO(), created.ID)).To(Succeed())
		_, err = s.Wave().Get(context.TODO(), created.ID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})
})
