// Package planlog persists computed allocation plans and tracks which of
// them a dispatcher accepted for field execution.
package planlog

import (
	"context"
	"errors"
	"time"

	"github.com/matiasvr/fireline/core/model"
)

// Record is one stored plan with its acceptance state.
type Record struct {
	PlanID     string                `json:"plan_id"`
	Scenario   string                `json:"scenario"`
	Status     model.PlanStatus      `json:"status"`
	Timestamp  time.Time             `json:"timestamp"`
	Accepted   bool                  `json:"accepted"`
	AcceptedAt time.Time             `json:"accepted_at,omitempty"`
	Plan       *model.AllocationPlan `json:"plan,omitempty"`
}

// Query defines filters for retrieving stored plans.
type Query struct {
	Start        time.Time
	End          time.Time
	Scenario     string
	Status       model.PlanStatus
	AcceptedOnly bool
}

// ErrNotFound is returned when no stored plan matches the requested id.
var ErrNotFound = errors.New("plan not found")

// Store persists plans and supports querying and acceptance.
type Store interface {
	Append(ctx context.Context, plan *model.AllocationPlan) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Get(ctx context.Context, planID string) (Record, error)
	MarkAccepted(ctx context.Context, planID string, at time.Time) error
	Close() error
}

func matches(r Record, q Query) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Scenario != "" && r.Scenario != q.Scenario {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.AcceptedOnly && !r.Accepted {
		return false
	}
	return true
}
