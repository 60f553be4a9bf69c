package metrics

import "time"

// SolvePath names which algorithm produced a plan.
type SolvePath string

const (
	PathExact  SolvePath = "exact"
	PathGreedy SolvePath = "greedy"
)

// SolveEvent captures one optimization run for observability purposes.
type SolveEvent struct {
	Scenario   string
	Path       SolvePath
	Status     string
	Demands    int
	Resources  int
	Assigned   int
	Unassigned int
	Objective  float64
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records solve events.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// PlanAcceptanceEvent is emitted when a dispatcher accepts a plan.
type PlanAcceptanceEvent struct {
	PlanID      string
	Scenario    string
	Assignments int
	Time        time.Time
}

// PlanAcceptanceRecorder is implemented by sinks that track accepted plans.
type PlanAcceptanceRecorder interface {
	RecordPlanAcceptance(ev PlanAcceptanceEvent) error
}

// NopSink discards all events.
type NopSink struct{}

// RecordSolve implements MetricsSink.
func (NopSink) RecordSolve(SolveEvent) error { return nil }

// RecordPlanAcceptance implements PlanAcceptanceRecorder.
func (NopSink) RecordPlanAcceptance(PlanAcceptanceEvent) error { return nil }
