package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/kubev2v/migration-wave-planner/internal/service"
	"github.com/kubev2v/migration-wave-planner/internal/service/mappers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("operation logging", func() {
	var (
		ctx  context.Context
		logs *observer.ObservedLogs
	)

	BeforeEach(func() {
		ctx = context.TODO()
		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		DeferCleanup(zap.ReplaceGlobals(zap.New(core)))
	})

	failedOperations := func() []string {
		var ops []string
		for _, entry := range logs.FilterMessage("operation failed").All() {
			if op, ok := entry.ContextMap()["operation"].(string); ok {
				ops = append(ops, op)
			}
		}
		return ops
	}

	It("logs a failed state load for every planning operation", func() {
		missing := uuid.New()
		cohorts := service.NewCohortService(s, nil)
		waves := service.NewWaveService(s, nil)
		execution := service.NewExecutionService(s)

		_, err := cohorts.PreviewCohorts(ctx, missing, mappers.CohortPlanForm{Strategy: "easiest_first"})
		Expect(err).NotTo(BeNil())
		_, err = cohorts.PreviewRebalance(ctx, missing, mappers.CohortPlanForm{})
		Expect(err).NotTo(BeNil())
		_, err = waves.PreviewWaves(ctx, missing, mappers.WavePlanForm{Strategy: "by_tenant"})
		Expect(err).NotTo(BeNil())
		_, err = waves.RunPreflight(ctx, missing, uuid.New())
		Expect(err).NotTo(BeNil())
		_, err = execution.Funnel(ctx, missing, "")
		Expect(err).NotTo(BeNil())
		_, err = service.NewEstimationService(s).Estimate(ctx, missing)
		Expect(err).NotTo(BeNil())

		Expect(failedOperations()).To(ContainElements(
			"preview_cohorts", "preview_rebalance", "preview_waves", "run_preflight",
			"compute_funnel", "estimate_project",
		))
		Expect(failedOperations()).To(HaveLen(6))
	})
})
