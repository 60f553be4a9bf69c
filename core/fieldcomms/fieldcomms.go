// Package fieldcomms defines how accepted assignment orders reach field
// units. Implementations live in infra; the planner and API depend only on
// this boundary.
package fieldcomms

import (
	"errors"
	"time"
)

// Order is one accepted assignment pushed to a field unit.
type Order struct {
	OrderID         string  `json:"order_id"`
	PlanID          string  `json:"plan_id"`
	ResourceID      string  `json:"resource_id"`
	DemandID        string  `json:"demand_id"`
	Scenario        string  `json:"scenario"`
	TravelTimeHours float64 `json:"travel_time_hours"`
	Explanation     string  `json:"explanation,omitempty"`
	Timestamp       int64   `json:"timestamp"`
}

// Publisher sends orders to field units and tracks their acknowledgments.
type Publisher interface {
	// SendOrder publishes the order to the unit-specific topic and returns
	// the order identifier used for acknowledgment tracking.
	SendOrder(order Order) (orderID string, err error)

	// WaitForAck waits for an acknowledgment of the given order or until
	// the timeout expires.
	WaitForAck(orderID string, timeout time.Duration) (bool, error)
}

// ErrAckTimeout is returned when no acknowledgment arrives before the
// timeout.
var ErrAckTimeout = errors.New("timeout waiting for ack")
