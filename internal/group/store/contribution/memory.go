// Package contribution persists the group inventory contribution ledger.
package contribution

import (
	"context"
	"sync"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

// InMemory is the map-backed contribution store for tests and
// development. The batch uniqueness scan runs under the store lock, which
// is the memory equivalent of the partial unique index in postgres.
type InMemory struct {
	mu   sync.RWMutex
	rows map[id.ContributionID]*models.Contribution
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[id.ContributionID]*models.Contribution)}
}

func (s *InMemory) Create(_ context.Context, contribution *models.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contribution.BatchID != nil {
		for _, row := range s.rows {
			if row.BatchID != nil && *row.BatchID == *contribution.BatchID {
				return sentinel.ErrConflict
			}
		}
	}
	s.rows[contribution.ID] = copyContribution(contribution)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, contributionID id.ContributionID) (*models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contribution, ok := s.rows[contributionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyContribution(contribution), nil
}

func (s *InMemory) FindByBatchID(_ context.Context, batchID id.BatchID) (*models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.BatchID != nil && *row.BatchID == batchID {
			return copyContribution(row), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ExistsForBatch(_ context.Context, batchID id.BatchID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.BatchID != nil && *row.BatchID == batchID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) Delete(_ context.Context, contributionID id.ContributionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[contributionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rows, contributionID)
	return nil
}

func (s *InMemory) DeleteAllForHouseholdInGroup(_ context.Context, groupID id.GroupID, householdID id.HouseholdID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for rowID, row := range s.rows {
		if row.GroupID == groupID && row.HouseholdID == householdID {
			delete(s.rows, rowID)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemory) BatchIDsByGroup(_ context.Context, groupID id.GroupID) ([]id.BatchID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var batchIDs []id.BatchID
	for _, row := range s.rows {
		if row.GroupID == groupID && row.BatchID != nil {
			batchIDs = append(batchIDs, *row.BatchID)
		}
	}
	return batchIDs, nil
}

func (s *InMemory) ByGroup(_ context.Context, groupID id.GroupID) ([]*models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var contributions []*models.Contribution
	for _, row := range s.rows {
		if row.GroupID == groupID {
			contributions = append(contributions, copyContribution(row))
		}
	}
	return contributions, nil
}

func copyContribution(c *models.Contribution) *models.Contribution {
	copied := *c
	if c.BatchID != nil {
		b := *c.BatchID
		copied.BatchID = &b
	}
	if c.ExpirationAt != nil {
		t := *c.ExpirationAt
		copied.ExpirationAt = &t
	}
	return &copied
}
