package fieldcomms

import (
	"fmt"
	"sync"
	"time"

	corefield "github.com/matiasvr/fireline/core/fieldcomms"
)

// Publisher mirrors the core fieldcomms.Publisher interface.
type Publisher = corefield.Publisher

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Orders     map[string]corefield.Order
	FailIDs    map[string]bool
	AckResults map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Orders:     make(map[string]corefield.Order),
		FailIDs:    make(map[string]bool),
		AckResults: make(map[string]bool),
	}
}

// SendOrder records the order or returns an error if configured to fail.
func (m *MockPublisher) SendOrder(order corefield.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[order.ResourceID] {
		return "", fmt.Errorf("publish failed")
	}
	orderID := fmt.Sprintf("ord-%s", order.ResourceID)
	order.OrderID = orderID
	m.Orders[order.ResourceID] = order
	m.AckResults[orderID] = true
	return orderID, nil
}

// WaitForAck simulates an immediate acknowledgment based on the stored
// result.
func (m *MockPublisher) WaitForAck(orderID string, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[orderID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("unknown order")
	}
	return ok, nil
}
