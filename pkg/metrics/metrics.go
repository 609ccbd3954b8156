package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	wavePlanner = "wave_planner"

	// Planning metrics
	planningOperationsTotal = "planning_operations_total"
	unplaceableTenantsTotal = "unplaceable_tenants_total"
	dependencyConflicts     = "dependency_conflicts_total"
	dependencyAdjustments   = "dependency_adjustments_total"
	waveTransitionsTotal    = "wave_transitions_total"
	cohortTransitionsTotal  = "cohort_transitions_total"

	// Funnel metrics
	FunnelVMCount = "funnel_vm_count"

	// Labels
	operationLabel = "operation"
	outcomeLabel   = "outcome"
	guardrailLabel = "guardrail"
	kindLabel      = "kind"
	stateLabel     = "state"
	statusLabel    = "status"
	projectLabel   = "project"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

/**
* Metrics definition
**/
var planningOperationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: wavePlanner,
		Name:      planningOperationsTotal,
		Help:      "number of planning previews and commits by operation and outcome",
	},
	[]string{operationLabel, outcomeLabel},
)

var unplaceableTenantsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: wavePlanner,
		Name:      unplaceableTenantsTotal,
		Help:      "number of tenants no cohort could take, by failing guardrail",
	},
	[]string{guardrailLabel},
)

var dependencyConflictsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: wavePlanner,
		Name:      dependencyConflicts,
		Help:      "number of cross-wave dependency conflicts reported by wave builds",
	},
	[]string{kindLabel},
)

var dependencyAdjustmentsMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: wavePlanner,
		Name:      dependencyAdjustments,
		Help:      "number of VMs moved to a later wave behind their predecessors",
	},
)

var waveTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: wavePlanner,
		Name:      waveTransitionsTotal,
		Help:      "number of applied wave state transitions by target state",
	},
	[]string{stateLabel},
)

var cohortTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: wavePlanner,
		Name:      cohortTransitionsTotal,
		Help:      "number of applied cohort status transitions by target status",
	},
	[]string{statusLabel},
)

var funnelVMCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: wavePlanner,
		Name:      FunnelVMCount,
		Help:      "number of VMs in each migration status at the last funnel computation",
	},
	[]string{projectLabel, statusLabel},
)

func IncreasePlanningOperationMetric(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	planningOperationsTotalMetric.With(prometheus.Labels{
		operationLabel: operation,
		outcomeLabel:   outcome,
	}).Inc()
}

func IncreaseUnplaceableTenantsMetric(guardrail string) {
	unplaceableTenantsTotalMetric.With(prometheus.Labels{guardrailLabel: guardrail}).Inc()
}

func IncreaseDependencyConflictsMetric(kind string) {
	dependencyConflictsMetric.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func AddDependencyAdjustmentsMetric(count int) {
	dependencyAdjustmentsMetric.Add(float64(count))
}

func IncreaseWaveTransitionsMetric(state string) {
	waveTransitionsTotalMetric.With(prometheus.Labels{stateLabel: state}).Inc()
}

func IncreaseCohortTransitionsMetric(status string) {
	cohortTransitionsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func UpdateFunnelMetric(project, status string, count int) {
	funnelVMCountMetric.With(prometheus.Labels{
		projectLabel: project,
		statusLabel:  status,
	}).Set(float64(count))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(planningOperationsTotalMetric)
	prometheus.MustRegister(unplaceableTenantsTotalMetric)
	prometheus.MustRegister(dependencyConflictsMetric)
	prometheus.MustRegister(dependencyAdjustmentsMetric)
	prometheus.MustRegister(waveTransitionsTotalMetric)
	prometheus.MustRegister(cohortTransitionsTotalMetric)
	prometheus.MustRegister(funnelVMCountMetric)
}
