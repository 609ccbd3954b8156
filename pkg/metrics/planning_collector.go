package metrics

import (
	"context"
	"fmt"

	"github.com/kubev2v/migration-wave-planner/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type planningStatsCollector struct {
	store        store.Store
	totalProject *prometheus.Desc
	cohortStatus *prometheus.Desc
	waveState    *prometheus.Desc
}

// NewPlanningStatsCollector reports the stored plan counts on every scrape.
func NewPlanningStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_plan_%s", wavePlanner, name)
	}

	return &planningStatsCollector{
		store: s,
		totalProject: prometheus.NewDesc(
			fqName("projects_total"),
			"Total number of planning projects.",
			nil,
			prometheus.Labels{},
		),
		cohortStatus: prometheus.NewDesc(
			fqName("cohorts_by_status"),
			"Committed cohorts by lifecycle status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
		waveState: prometheus.NewDesc(
			fqName("waves_by_state"),
			"Committed waves by lifecycle state.",
			[]string{stateLabel},
			prometheus.Labels{},
		),
	}
}

func (c *planningStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalProject
	ch <- c.cohortStatus
	ch <- c.waveState
}

// Collect implements Collector.
func (c *planningStatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()
	log := zap.S().Named("planning_collector")

	projects, err := c.store.Project().List(ctx, store.NewProjectQueryFilter())
	if err != nil {
		log.Errorf("failed to collect project statistics: %s", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.totalProject, prometheus.GaugeValue, float64(len(projects)))

	cohorts, err := c.store.Cohort().List(ctx, store.NewCohortQueryFilter())
	if err != nil {
		log.Errorf("failed to collect cohort statistics: %s", err)
		return
	}
	byStatus := make(map[string]int)
	for _, cohort := range cohorts {
		byStatus[cohort.Status]++
	}
	for status, total := range byStatus {
		ch <- prometheus.MustNewConstMetric(c.cohortStatus, prometheus.GaugeValue, float64(total), status)
	}

	waves, err := c.store.Wave().List(ctx, store.NewWaveQueryFilter())
	if err != nil {
		log.Errorf("failed to collect wave statistics: %s", err)
		return
	}
	byState := make(map[string]int)
	for _, w := range waves {
		byState[w.State]++
	}
	for state, total := range byState {
		ch <- prometheus.MustNewConstMetric(c.waveState, prometheus.GaugeValue, float64(total), state)
	}
}
