package cohort_test

import (
	"errors"
	"fmt"

	"github.com/kubev2v/migration-wave-planner/internal/cohort"
	"github.com/kubev2v/migration-wave-planner/internal/estimation/estimator"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type tenantSpec struct {
	id        string
	vms       int
	diskEach  float64
	risk      float64
	os        string
	supported bool
	priority  *int
}

func buildSnapshot(specs ...tenantSpec) *inventory.Snapshot {
	s := &inventory.Snapshot{}
	for _, ts := range specs {
		s.Tenants = append(s.Tenants, inventory.Tenant{ID: ts.id, IncludeInPlan: true, Priority: ts.priority})
		for i := 0; i < ts.vms; i++ {
			s.VMs = append(s.VMs, inventory.VM{
				ID:          fmt.Sprintf("%s-vm-%d", ts.id, i),
				TenantID:    ts.id,
				UsedDiskGB:  ts.diskEach,
				RiskScore:   ts.risk,
				OSFamily:    ts.os,
				OSSupported: ts.supported,
				PoweredOn:   true,
			})
		}
	}
	return s
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func cohortVMs(p *cohort.Proposal) []int {
	out := make([]int, 0, len(p.Cohorts))
	for _, c := range p.Cohorts {
		out = append(out, c.VMCount)
	}
	return out
}

var _ = Describe("cohort assignment", func() {
	var (
		snapshot *inventory.Snapshot
		scores   map[string]float64
	)

	BeforeEach(func() {
		snapshot = buildSnapshot(
			tenantSpec{id: "t1", vms: 5, diskEach: 10, risk: 10, os: "linux", supported: true},
			tenantSpec{id: "t2", vms: 5, diskEach: 20, risk: 20, os: "linux", supported: true},
			tenantSpec{id: "t3", vms: 5, diskEach: 30, risk: 30, os: "windows", supported: false},
			tenantSpec{id: "t4", vms: 5, diskEach: 40, risk: 40, os: "windows", supported: false},
			tenantSpec{id: "t5", vms: 5, diskEach: 50, risk: 50, os: "linux", supported: true},
			tenantSpec{id: "t6", vms: 5, diskEach: 60, risk: 60, os: "windows", supported: false},
		)
		scores = map[string]float64{"t1": 10, "t2": 20, "t3": 30, "t4": 40, "t5": 50, "t6": 60}
	})

	Context("request validation", func() {
		It("rejects an unknown strategy", func() {
			_, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Strategy: "alphabetical"})
			Expect(err).NotTo(BeNil())
			var unknown *cohort.ErrUnknownStrategy
			Expect(errors.As(err, &unknown)).To(BeTrue())
		})

		It("needs an estimator for the bandwidth guardrail", func() {
			_, err := cohort.Assign(cohort.Request{
				Snapshot:   snapshot,
				Strategy:   cohort.StrategyEasiestFirst,
				Guardrails: cohort.Guardrails{MaxBandwidthDays: floatPtr(1)},
			})
			var invalid *cohort.ErrInvalidRequest
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("parses every advertised strategy", func() {
			for _, name := range cohort.Strategies() {
				s, err := cohort.ParseStrategy(name)
				Expect(err).To(BeNil())
				Expect(string(s)).To(Equal(name))
			}
		})
	})

	Context("easiest_first", func() {
		It("fills cohorts in ease order", func() {
			p, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyEasiestFirst, CohortCount: 3})
			Expect(err).To(BeNil())
			Expect(p.Cohorts).To(HaveLen(3))
			Expect(p.Cohorts[0].TenantIDs).To(Equal([]string{"t1", "t2"}))
			Expect(p.Cohorts[1].TenantIDs).To(Equal([]string{"t3", "t4"}))
			Expect(p.Cohorts[2].TenantIDs).To(Equal([]string{"t5", "t6"}))
			Expect(p.Assignments).To(HaveKeyWithValue("t6", 3))
			Expect(p.Unplaceable).To(BeEmpty())
		})

		It("treats a tenant without a score as the midpoint", func() {
			delete(scores, "t1")
			p, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyEasiestFirst, CohortCount: 6})
			Expect(err).To(BeNil())
			// 50 sorts ahead of t5 (50, later id) and t6 (60)
			Expect(p.CohortOf("t1")).To(Equal(4))
		})

		It("compacts empty cohorts", func() {
			p, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyEasiestFirst, CohortCount: 10})
			Expect(err).To(BeNil())
			Expect(p.Cohorts).To(HaveLen(6))
			for i, c := range p.Cohorts {
				Expect(c.Order).To(Equal(i + 1))
				Expect(c.TenantIDs).To(HaveLen(1))
			}
		})

		It("ignores out of scope tenants", func() {
			snapshot.Tenants[0].IncludeInPlan = false
			p, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyEasiestFirst, CohortCount: 1})
			Expect(err).To(BeNil())
			Expect(p.Assignments).NotTo(HaveKey("t1"))
			Expect(p.Cohorts[0].VMCount).To(Equal(25))
		})

		It("never mutates the snapshot", func() {
			before := snapshot.Clone()
			_, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyEasiestFirst})
			Expect(err).To(BeNil())
			Expect(snapshot).To(Equal(before))
		})
	})

	Context("guardrails", func() {
		It("never exceeds max VMs and reports what does not fit", func() {
			p, err := cohort.Assign(cohort.Request{
				Snapshot:    snapshot,
				Scores:      scores,
				Strategy:    cohort.StrategyEasiestFirst,
				CohortCount: 3,
				Guardrails:  cohort.Guardrails{MaxVMs: intPtr(8)},
			})
			Expect(err).To(BeNil())
			for _, vms := range cohortVMs(p) {
				Expect(vms).To(BeNumerically("<=", 8))
			}
			Expect(len(p.Assignments) + len(p.Unplaceable)).To(Equal(6))
			Expect(p.Unplaceable).NotTo(BeEmpty())
			for _, u := range p.Unplaceable {
				Expect(u.Guardrail).To(Equal(cohort.GuardrailMaxVMs))
				Expect(u.Detail).NotTo(BeEmpty())
			}
		})

		It("displaces a tenant to the next cohort", func() {
			p, err := cohort.Assign(cohort.Request{
				Snapshot:    snapshot,
				Scores:      scores,
				Strategy:    cohort.StrategyEasiestFirst,
				CohortCount: 3,
				Guardrails:  cohort.Guardrails{MaxDiskGB: floatPtr(200)},
			})
			Expect(err).To(BeNil())
			// t1 (50 GB) and t2 (100 GB) share the first cohort; t3 (150) and
			// t4 (200) cannot share, so t4 moves on; t5 and t6 fit nowhere
			Expect(p.CohortOf("t1")).To(Equal(1))
			Expect(p.CohortOf("t2")).To(Equal(1))
			Expect(p.CohortOf("t3")).To(Equal(2))
			Expect(p.CohortOf("t4")).To(Equal(3))
			Expect(len(p.Assignments) + len(p.Unplaceable)).To(Equal(6))
			for _, c := range p.Cohorts {
				Expect(c.UsedDiskGB).To(BeNumerically("<=", 200))
			}
		})

		It("fills cohorts up to capacity before reporting a tenant unplaceable", func() {
			snapshot = buildSnapshot(
				tenantSpec{id: "f0", vms: 10, diskEach: 10},
				tenantSpec{id: "f1", vms: 1, diskEach: 10},
				tenantSpec{id: "f2", vms: 1, diskEach: 10},
				tenantSpec{id: "f3", vms: 1, diskEach: 10},
				tenantSpec{id: "f4", vms: 1, diskEach: 10},
				tenantSpec{id: "f5", vms: 10, diskEach: 10},
			)
			scores = map[string]float64{"f0": 10, "f1": 20, "f2": 30, "f3": 40, "f4": 50, "f5": 60}

			p, err := cohort.Assign(cohort.Request{
				Snapshot:    snapshot,
				Scores:      scores,
				Strategy:    cohort.StrategyEasiestFirst,
				CohortCount: 3,
				Guardrails:  cohort.Guardrails{MaxVMs: intPtr(10)},
			})
			Expect(err).To(BeNil())
			Expect(p.Unplaceable).To(BeEmpty())
			Expect(p.Assignments).To(HaveLen(6))
			Expect(cohortVMs(p)).To(Equal([]int{10, 4, 10}))
			Expect(p.CohortOf("f0")).To(Equal(1))
			Expect(p.CohortOf("f4")).To(Equal(2))
			Expect(p.CohortOf("f5")).To(Equal(3))
		})

		It("keeps the even share when guardrails do not bind", func() {
			p, err := cohort.Assign(cohort.Request{
				Snapshot:    snapshot,
				Scores:      scores,
				Strategy:    cohort.StrategyEasiestFirst,
				CohortCount: 3,
				Guardrails:  cohort.Guardrails{MaxVMs: intPtr(100)},
			})
			Expect(err).To(BeNil())
			Expect(cohortVMs(p)).To(Equal([]int{10, 10, 10}))
		})

		It("enforces average risk and OS support", func() {
			p, err := cohort.Assign(cohort.Request{
				Snapshot:    snapshot,
				Scores:      scores,
				Strategy:    cohort.StrategyEasiestFirst,
				CohortCount: 2,
				Guardrails:  cohort.Guardrails{MaxAvgRisk: floatPtr(45), MinOSSupportRate: floatPtr(0.5)},
			})
			Expect(err).To(BeNil())
			for _, c := range p.Cohorts {
				Expect(c.AvgRisk).To(BeNumerically("<=", 45))
				Expect(c.OSSupportRate).To(BeNumerically(">=", 0.5))
			}
			Expect(len(p.Assignments) + len(p.Unplaceable)).To(Equal(6))
		})

		It("evaluates bandwidth days with the estimator", func() {
			cfg := plan.DefaultProjectConfig()
			cfg.LinkBandwidthMbps = 1
			p, err := cohort.Assign(cohort.Request{
				Snapshot:    snapshot,
				Scores:      scores,
				Strategy:    cohort.StrategyEasiestFirst,
				CohortCount: 2,
				Guardrails:  cohort.Guardrails{MaxBandwidthDays: floatPtr(0.5)},
				Estimator:   estimator.New(cfg),
			})
			Expect(err).To(BeNil())
			Expect(p.Assignments).To(BeEmpty())
			Expect(p.Unplaceable).To(HaveLen(6))
			Expect(p.Unplaceable[0].Guardrail).To(Equal(cohort.GuardrailMaxBandwidthDays))
		})
	})

	Context("riskiest_last", func() {
		It("forces tenants at or above the threshold into the final cohort", func() {
			p, err := cohort.Assign(cohort.Request{
				Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyRiskiestLast,
				CohortCount: 3, RiskThreshold: 40,
			})
			Expect(err).To(BeNil())
			Expect(p.Cohorts).To(HaveLen(3))
			Expect(p.Cohorts[2].TenantIDs).To(Equal([]string{"t4", "t5", "t6"}))
			Expect(p.CohortOf("t1")).To(Equal(1))
			Expect(p.CohortOf("t3")).To(Equal(2))
		})

		It("moves the single riskiest tenant last when none crosses the threshold", func() {
			scores["t6"] = 1
			p, err := cohort.Assign(cohort.Request{
				Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyRiskiestLast, CohortCount: 2,
			})
			Expect(err).To(BeNil())
			Expect(p.Cohorts[len(p.Cohorts)-1].TenantIDs).To(ContainElement("t6"))
			Expect(p.CohortOf("t6")).To(Equal(2))
		})
	})

	Context("pilot_plus_bulk", func() {
		It("always produces a pilot and a bulk cohort", func() {
			p, err := cohort.Assign(cohort.Request{
				Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyPilotPlusBulk, CohortCount: 5, PilotSize: 2,
			})
			Expect(err).To(BeNil())
			Expect(p.Cohorts).To(HaveLen(2))
			Expect(p.Cohorts[0].TenantIDs).To(Equal([]string{"t1", "t2"}))
			Expect(p.Cohorts[1].TenantIDs).To(HaveLen(4))
		})
	})

	Context("balanced_load", func() {
		It("keeps used disk close across cohorts", func() {
			p, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyBalancedLoad, CohortCount: 2})
			Expect(err).To(BeNil())
			Expect(p.Cohorts).To(HaveLen(2))
			// 1050 GB in total
			Expect(p.Cohorts[0].UsedDiskGB + p.Cohorts[1].UsedDiskGB).To(BeNumerically("~", 1050, 1e-9))
			diff := p.Cohorts[0].UsedDiskGB - p.Cohorts[1].UsedDiskGB
			Expect(diff).To(BeNumerically("~", 0, 50))
			Expect(p.Cohorts[0].AvgEase).To(BeNumerically("<=", p.Cohorts[1].AvgEase))
		})
	})

	Context("os_first", func() {
		It("puts the supported family ahead of the unsupported one", func() {
			p, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyOSFirst, CohortCount: 2})
			Expect(err).To(BeNil())
			Expect(p.Cohorts[0].TenantIDs).To(Equal([]string{"t1", "t2", "t5"}))
			Expect(p.Cohorts[0].OSSupportRate).To(Equal(1.0))
			Expect(p.Cohorts[1].TenantIDs).To(Equal([]string{"t3", "t4", "t6"}))
		})
	})

	Context("by_priority", func() {
		It("ignores the ease score", func() {
			snapshot.Tenants[5].Priority = intPtr(1)
			snapshot.Tenants[4].Priority = intPtr(2)
			p, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyByPriority, CohortCount: 3})
			Expect(err).To(BeNil())
			Expect(p.Cohorts[0].TenantIDs).To(Equal([]string{"t5", "t6"}))
			Expect(p.CohortOf("t1")).To(Equal(2))
		})
	})

	Context("rebalance", func() {
		It("previews the moves without touching tenants", func() {
			for i := range snapshot.Tenants {
				snapshot.Tenants[i].Cohort = inventory.AssignedTo("early")
			}
			snapshot.Tenants[5].Cohort = inventory.AssignedTo("late")
			snapshot.Tenants[4].Cohort = inventory.Unassigned()
			current := []plan.Cohort{{ID: "late", Order: 20}, {ID: "early", Order: 10}}
			before := snapshot.Clone()

			r, err := cohort.Rebalance(cohort.Request{Snapshot: snapshot, Scores: scores}, current)
			Expect(err).To(BeNil())
			Expect(r.Proposal.Strategy).To(Equal(cohort.StrategyBalancedLoad))
			Expect(r.Proposal.Cohorts).To(HaveLen(2))
			Expect(snapshot).To(Equal(before))

			for _, m := range r.Diff {
				Expect(m.From).NotTo(Equal(m.To))
				Expect(m.To).To(Equal(r.Proposal.CohortOf(m.TenantID)))
			}
			var t5 *cohort.Move
			for i := range r.Diff {
				if r.Diff[i].TenantID == "t5" {
					t5 = &r.Diff[i]
				}
			}
			Expect(t5).NotTo(BeNil())
			Expect(t5.From).To(Equal(0))
		})

		It("reports no moves when the assignment is already balanced", func() {
			first, err := cohort.Assign(cohort.Request{Snapshot: snapshot, Scores: scores, Strategy: cohort.StrategyBalancedLoad, CohortCount: 2})
			Expect(err).To(BeNil())
			for i, t := range snapshot.Tenants {
				snapshot.Tenants[i].Cohort = inventory.AssignedTo(fmt.Sprintf("c%d", first.CohortOf(t.ID)))
			}
			current := []plan.Cohort{{ID: "c1", Order: 1}, {ID: "c2", Order: 2}}

			r, err := cohort.Rebalance(cohort.Request{Snapshot: snapshot, Scores: scores}, current)
			Expect(err).To(BeNil())
			Expect(r.Diff).To(BeEmpty())
		})
	})
})
