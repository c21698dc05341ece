package notify

import (
	"context"
	"sync"

	id "beredskap/pkg/domain"
)

// Recorded is one captured notification.
type Recorded struct {
	HouseholdID id.HouseholdID
	Message     string
}

// InMemory records notifications for tests.
type InMemory struct {
	mu   sync.Mutex
	sent []Recorded
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (n *InMemory) Notify(_ context.Context, householdID id.HouseholdID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Recorded{HouseholdID: householdID, Message: message})
	return nil
}

// Sent returns a copy of everything recorded so far.
func (n *InMemory) Sent() []Recorded {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Recorded, len(n.sent))
	copy(out, n.sent)
	return out
}
