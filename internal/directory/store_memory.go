package directory

import (
	"context"
	"sync"

	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

// InMemory is the test and development directory. Users are registered
// with their household and an admin flag.
type InMemory struct {
	mu         sync.RWMutex
	households map[id.HouseholdID]*Household
	users      map[string]memoryUser
}

type memoryUser struct {
	householdID id.HouseholdID
	admin       bool
}

func NewInMemory() *InMemory {
	return &InMemory{
		households: make(map[id.HouseholdID]*Household),
		users:      make(map[string]memoryUser),
	}
}

// AddHousehold registers a household.
func (s *InMemory) AddHousehold(h *Household) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *h
	s.households[h.ID] = &copied
}

// AddUser registers a user belonging to a household.
func (s *InMemory) AddUser(email string, householdID id.HouseholdID, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = memoryUser{householdID: householdID, admin: admin}
}

func (s *InMemory) HouseholdIDByEmail(_ context.Context, email string) (id.HouseholdID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[email]; ok {
		return user.householdID, nil
	}
	return id.HouseholdID{}, sentinel.ErrNotFound
}

func (s *InMemory) IsHouseholdAdmin(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[email]; ok {
		return user.admin, nil
	}
	return false, nil
}

func (s *InMemory) HouseholdByName(_ context.Context, name string) (*Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.households {
		if h.Name == name {
			copied := *h
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Household(_ context.Context, householdID id.HouseholdID) (*Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.households[householdID]; ok {
		copied := *h
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) HouseholdsByIDs(_ context.Context, ids []id.HouseholdID) ([]*Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Household, 0, len(ids))
	for _, householdID := range ids {
		if h, ok := s.households[householdID]; ok {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out, nil
}
