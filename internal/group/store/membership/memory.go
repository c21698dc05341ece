// Package membership persists membership tenures. Rows are append-only;
// the only mutation ever applied is setting the departure time.
package membership

import (
	"context"
	"sync"
	"time"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

// InMemory is the map-backed membership store for tests and development.
type InMemory struct {
	mu   sync.RWMutex
	rows map[id.MembershipID]*models.Membership
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[id.MembershipID]*models.Membership)}
}

func (s *InMemory) Create(_ context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.GroupID == membership.GroupID &&
			row.HouseholdID == membership.HouseholdID &&
			row.LeftAt == nil {
			return sentinel.ErrConflict
		}
	}
	s.rows[membership.ID] = copyMembership(membership)
	return nil
}

// Update persists the end of a tenure. An already ended row is not
// writable again, so concurrent leavers race to a single winner.
func (s *InMemory) Update(_ context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[membership.ID]
	if !ok || existing.LeftAt != nil {
		return sentinel.ErrNotFound
	}
	s.rows[membership.ID] = copyMembership(membership)
	return nil
}

func (s *InMemory) CurrentByGroupAndHousehold(_ context.Context, groupID id.GroupID, householdID id.HouseholdID, now time.Time) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.GroupID == groupID && row.HouseholdID == householdID && row.IsCurrent(now) {
			return copyMembership(row), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) CurrentByHousehold(_ context.Context, householdID id.HouseholdID, now time.Time) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var current []*models.Membership
	for _, row := range s.rows {
		if row.HouseholdID == householdID && row.IsCurrent(now) {
			current = append(current, copyMembership(row))
		}
	}
	return current, nil
}

func (s *InMemory) CurrentByGroup(_ context.Context, groupID id.GroupID, now time.Time) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var current []*models.Membership
	for _, row := range s.rows {
		if row.GroupID == groupID && row.IsCurrent(now) {
			current = append(current, copyMembership(row))
		}
	}
	return current, nil
}

func (s *InMemory) CountCurrentByGroup(ctx context.Context, groupID id.GroupID, now time.Time) (int, error) {
	current, err := s.CurrentByGroup(ctx, groupID, now)
	if err != nil {
		return 0, err
	}
	return len(current), nil
}

func copyMembership(m *models.Membership) *models.Membership {
	copied := *m
	if m.LeftAt != nil {
		left := *m.LeftAt
		copied.LeftAt = &left
	}
	return &copied
}
