// Package group persists preparedness groups.
package group

import (
	"context"
	"sync"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

// InMemory is the map-backed group store for tests and development.
type InMemory struct {
	mu     sync.RWMutex
	groups map[id.GroupID]*models.Group
}

func NewInMemory() *InMemory {
	return &InMemory{groups: make(map[id.GroupID]*models.Group)}
}

func (s *InMemory) Create(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *group
	s.groups[group.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, groupID id.GroupID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *group
	return &copied, nil
}

func (s *InMemory) FindByIDs(_ context.Context, groupIDs []id.GroupID) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make([]*models.Group, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		if group, ok := s.groups[groupID]; ok {
			copied := *group
			groups = append(groups, &copied)
		}
	}
	return groups, nil
}

func (s *InMemory) Update(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *group
	s.groups[group.ID] = &copied
	return nil
}
