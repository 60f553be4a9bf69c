package metrics

import coremetrics "github.com/matiasvr/fireline/core/metrics"

// MultiSink fans solve events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSolve(ev coremetrics.SolveEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlanAcceptance forwards acceptance events to sinks that track them.
func (m *MultiSink) RecordPlanAcceptance(ev coremetrics.PlanAcceptanceEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.PlanAcceptanceRecorder); ok {
			if err := rec.RecordPlanAcceptance(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
