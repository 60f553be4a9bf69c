package metrics

import (
	coremetrics "github.com/matiasvr/fireline/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solve events in Prometheus metrics.
type PromSink struct {
	solves     *prometheus.CounterVec
	unassigned *prometheus.CounterVec
	objective  *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
	accepted   *prometheus.CounterVec
}

// NewPromSink registers planner metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_solves_total",
		Help: "Total number of optimization runs",
	}, []string{"scenario", "path", "status"})
	unassigned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_unassigned_demand_total",
		Help: "Demand points left without a resource",
	}, []string{"scenario"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "allocation_objective_value",
		Help: "Objective value of the most recent plan",
	}, []string{"scenario"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_solve_duration_seconds",
		Help:    "Wall-clock time of one optimization run",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario", "path"})
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_plans_accepted_total",
		Help: "Plans accepted for field dispatch",
	}, []string{"scenario"})

	if err := registerCounterVec(reg, &solves); err != nil {
		return nil, err
	}
	if err := registerCounterVec(reg, &unassigned); err != nil {
		return nil, err
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := registerCounterVec(reg, &accepted); err != nil {
		return nil, err
	}

	return &PromSink{
		solves:     solves,
		unassigned: unassigned,
		objective:  objective,
		duration:   duration,
		accepted:   accepted,
	}, nil
}

func registerCounterVec(reg prometheus.Registerer, cv **prometheus.CounterVec) error {
	if err := reg.Register(*cv); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*cv = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return nil
}

// RecordSolve updates the counters, the objective gauge and the duration
// histogram for one optimization run.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Scenario, string(ev.Path), ev.Status).Inc()
	s.unassigned.WithLabelValues(ev.Scenario).Add(float64(ev.Unassigned))
	s.objective.WithLabelValues(ev.Scenario).Set(ev.Objective)
	s.duration.WithLabelValues(ev.Scenario, string(ev.Path)).Observe(ev.Duration.Seconds())
	return nil
}

// RecordPlanAcceptance increments the accepted-plan counter.
func (s *PromSink) RecordPlanAcceptance(ev coremetrics.PlanAcceptanceEvent) error {
	s.accepted.WithLabelValues(ev.Scenario).Inc()
	return nil
}
