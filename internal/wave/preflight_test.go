package wave_test

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/wave"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func resultOf(r *plan.PreflightReport, id plan.CheckID) plan.CheckResult {
	for _, res := range r.Results {
		if res.ID == id {
			return res
		}
	}
	Fail("no result for " + string(id))
	return plan.CheckResult{}
}

var _ = Describe("pre-flight", func() {
	var (
		snapshot *inventory.Snapshot
		w        *plan.Wave
		env      wave.PreflightEnv
	)

	BeforeEach(func() {
		mapped := inventory.Mapping{Target: "ns-1", Confirmed: true}
		snapshot = &inventory.Snapshot{
			Tenants: []inventory.Tenant{
				{ID: "t", IncludeInPlan: true, TargetMapping: mapped, NetworkMappings: map[string]inventory.Mapping{"prod": mapped}},
			},
			VMs: []inventory.VM{
				{ID: "v1", TenantID: "t", Networks: []string{"prod"}, AssessmentPassed: true, HasBackupBaseline: true},
				{ID: "v2", TenantID: "t", Networks: []string{"prod"}, AssessmentPassed: true, HasBackupBaseline: true},
			},
		}
		w = &plan.Wave{ID: uuid.New(), Order: 1, State: plan.WavePlanned, VMs: []plan.WaveVM{{VMID: "v1", Order: 1}, {VMID: "v2", Order: 2}}}
		env = wave.PreflightEnv{AgentReachable: true, Now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	})

	It("passes a ready wave", func() {
		report := wave.RunPreflight(w, snapshot, plan.DefaultPreflightCatalogue(), env)
		Expect(report.WaveID).To(Equal(w.ID))
		Expect(report.EvaluatedAt).To(Equal(env.Now))
		Expect(report.Results).To(HaveLen(6))
		Expect(report.Blocked()).To(BeFalse())
		Expect(report.Advisories()).To(BeEmpty())

		Expect(w.Transition(plan.WavePreChecksPassed, plan.TransitionGuard{Preflight: report}, env.Now)).To(Succeed())
	})

	It("blocks on an unmapped network and names the VM", func() {
		snapshot.VMs[1].Networks = append(snapshot.VMs[1].Networks, "backup")
		report := wave.RunPreflight(w, snapshot, plan.DefaultPreflightCatalogue(), env)
		res := resultOf(report, plan.CheckNetworkMapping)
		Expect(res.Passed).To(BeFalse())
		Expect(res.AffectedVMs).To(Equal([]string{"v2"}))
		Expect(res.AffectedTenants).To(Equal([]string{"t"}))

		err := w.Transition(plan.WavePreChecksPassed, plan.TransitionGuard{Preflight: report}, env.Now)
		var failed *plan.ErrPreflightFailed
		Expect(errors.As(err, &failed)).To(BeTrue())
		Expect(w.State).To(Equal(plan.WavePlanned))
	})

	It("blocks on a missing target mapping", func() {
		snapshot.Tenants[0].TargetMapping = inventory.Mapping{}
		report := wave.RunPreflight(w, snapshot, plan.DefaultPreflightCatalogue(), env)
		Expect(resultOf(report, plan.CheckTargetMapping).AffectedTenants).To(Equal([]string{"t"}))
		Expect(report.Blocked()).To(BeTrue())
	})

	It("accepts an auto-seeded unreviewed mapping as present", func() {
		snapshot.Tenants[0].TargetMapping = inventory.Mapping{Target: "ns-1", AutoSeeded: true}
		report := wave.RunPreflight(w, snapshot, plan.DefaultPreflightCatalogue(), env)
		Expect(resultOf(report, plan.CheckTargetMapping).Passed).To(BeTrue())
	})

	It("blocks on assessment, critical gaps and an unreachable agent", func() {
		snapshot.VMs[0].AssessmentPassed = false
		snapshot.VMs[1].CriticalGaps = 2
		env.AgentReachable = false
		report := wave.RunPreflight(w, snapshot, plan.DefaultPreflightCatalogue(), env)

		Expect(resultOf(report, plan.CheckAssessmentPassed).AffectedVMs).To(Equal([]string{"v1"}))
		Expect(resultOf(report, plan.CheckCriticalGaps).AffectedVMs).To(Equal([]string{"v2"}))
		Expect(resultOf(report, plan.CheckAgentReachable).Passed).To(BeFalse())
		Expect(report.FailedBlockers()).To(HaveLen(3))
	})

	It("treats a missing backup baseline as advisory", func() {
		snapshot.VMs[0].HasBackupBaseline = false
		report := wave.RunPreflight(w, snapshot, plan.DefaultPreflightCatalogue(), env)
		Expect(report.Blocked()).To(BeFalse())
		Expect(report.Advisories()).To(HaveLen(1))
		Expect(report.Advisories()[0].AffectedVMs).To(Equal([]string{"v1"}))
	})

	It("follows the project catalogue severities", func() {
		snapshot.VMs[0].HasBackupBaseline = false
		catalogue := []plan.CheckDefinition{{ID: plan.CheckBackupBaseline, Severity: plan.SeverityBlocker}}
		report := wave.RunPreflight(w, snapshot, catalogue, env)
		Expect(report.Results).To(HaveLen(1))
		Expect(report.Blocked()).To(BeTrue())
	})

	It("fails assessment for VMs missing from the inventory", func() {
		w.VMs = append(w.VMs, plan.WaveVM{VMID: "gone", Order: 3})
		report := wave.RunPreflight(w, snapshot, plan.DefaultPreflightCatalogue(), env)
		Expect(resultOf(report, plan.CheckAssessmentPassed).AffectedVMs).To(ContainElement("gone"))
	})
})
