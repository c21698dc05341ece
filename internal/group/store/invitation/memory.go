// Package invitation persists group invitations. Pending is evaluated
// against the caller's time; nothing here ever writes an expired state.
package invitation

import (
	"context"
	"sync"
	"time"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

// InMemory is the map-backed invitation store for tests and development.
type InMemory struct {
	mu   sync.RWMutex
	rows map[id.InvitationID]*models.Invitation
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[id.InvitationID]*models.Invitation)}
}

func (s *InMemory) Create(_ context.Context, invitation *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.GroupID == invitation.GroupID &&
			row.InvitedHouseholdID == invitation.InvitedHouseholdID &&
			row.IsPending(invitation.CreatedAt) {
			return sentinel.ErrConflict
		}
	}
	s.rows[invitation.ID] = copyInvitation(invitation)
	return nil
}

func (s *InMemory) Update(_ context.Context, invitation *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[invitation.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.rows[invitation.ID] = copyInvitation(invitation)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, invitationID id.InvitationID) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invitation, ok := s.rows[invitationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyInvitation(invitation), nil
}

func (s *InMemory) PendingByGroupAndHousehold(_ context.Context, groupID id.GroupID, householdID id.HouseholdID, now time.Time) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.GroupID == groupID && row.InvitedHouseholdID == householdID && row.IsPending(now) {
			return copyInvitation(row), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) PendingByHousehold(_ context.Context, householdID id.HouseholdID, now time.Time) ([]*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*models.Invitation
	for _, row := range s.rows {
		if row.InvitedHouseholdID == householdID && row.IsPending(now) {
			pending = append(pending, copyInvitation(row))
		}
	}
	return pending, nil
}

func copyInvitation(i *models.Invitation) *models.Invitation {
	copied := *i
	if i.AcceptedAt != nil {
		t := *i.AcceptedAt
		copied.AcceptedAt = &t
	}
	if i.DeclinedAt != nil {
		t := *i.DeclinedAt
		copied.DeclinedAt = &t
	}
	return &copied
}
