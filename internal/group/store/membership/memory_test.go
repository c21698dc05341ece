package membership

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

type MembershipStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *MembershipStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

func TestMembershipStoreSuite(t *testing.T) {
	suite.Run(t, new(MembershipStoreSuite))
}

func (s *MembershipStoreSuite) newMembership(groupID id.GroupID, householdID id.HouseholdID) *models.Membership {
	return models.NewMembership(id.MembershipID(uuid.New()), groupID, householdID, "ava@example.com", s.now)
}

func (s *MembershipStoreSuite) TestActiveUniqueness() {
	groupID := id.GroupID(uuid.New())
	householdID := id.HouseholdID(uuid.New())

	s.Run("rejects a second active row for the pair", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newMembership(groupID, householdID)))
		err := s.store.Create(s.ctx, s.newMembership(groupID, householdID))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows a new active row after the previous ended", func() {
		ended, err := s.store.CurrentByGroupAndHousehold(s.ctx, groupID, householdID, s.now)
		s.Require().NoError(err)
		ended.End(s.now)
		s.Require().NoError(s.store.Update(s.ctx, ended))

		s.Require().NoError(s.store.Create(s.ctx, s.newMembership(groupID, householdID)))
	})

	s.Run("survives concurrent joins with exactly one winner", func() {
		gid := id.GroupID(uuid.New())
		hid := id.HouseholdID(uuid.New())

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.store.Create(s.ctx, s.newMembership(gid, hid))
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				s.Require().ErrorIs(err, sentinel.ErrConflict)
			}
		}
		s.Equal(1, winners)
	})
}

func (s *MembershipStoreSuite) TestEndTenureIsOneShot() {
	groupID := id.GroupID(uuid.New())
	householdID := id.HouseholdID(uuid.New())
	m := s.newMembership(groupID, householdID)
	s.Require().NoError(s.store.Create(s.ctx, m))

	s.Run("ending an already ended row reports NotFound", func() {
		m.End(s.now)
		s.Require().NoError(s.store.Update(s.ctx, m))
		s.Require().ErrorIs(s.store.Update(s.ctx, m), sentinel.ErrNotFound)
	})

	s.Run("concurrent enders produce exactly one winner", func() {
		active := s.newMembership(groupID, householdID)
		s.Require().NoError(s.store.Create(s.ctx, active))

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ended := *active
				ended.End(s.now)
				errs[i] = s.store.Update(s.ctx, &ended)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				s.Require().ErrorIs(err, sentinel.ErrNotFound)
			}
		}
		s.Equal(1, winners)
	})
}

func (s *MembershipStoreSuite) TestCurrencyPredicate() {
	groupID := id.GroupID(uuid.New())
	householdID := id.HouseholdID(uuid.New())
	m := s.newMembership(groupID, householdID)
	s.Require().NoError(s.store.Create(s.ctx, m))

	s.Run("active row is current", func() {
		found, err := s.store.CurrentByGroupAndHousehold(s.ctx, groupID, householdID, s.now)
		s.Require().NoError(err)
		s.Equal(m.ID, found.ID)
	})

	s.Run("ended row drops out at the departure instant", func() {
		m.End(s.now.Add(time.Hour))
		s.Require().NoError(s.store.Update(s.ctx, m))

		_, err := s.store.CurrentByGroupAndHousehold(s.ctx, groupID, householdID, s.now.Add(time.Hour))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		// Before the departure it still counts.
		found, err := s.store.CurrentByGroupAndHousehold(s.ctx, groupID, householdID, s.now)
		s.Require().NoError(err)
		s.Equal(m.ID, found.ID)
	})
}

func (s *MembershipStoreSuite) TestGroupAndHouseholdListings() {
	groupID := id.GroupID(uuid.New())
	h1 := id.HouseholdID(uuid.New())
	h2 := id.HouseholdID(uuid.New())

	s.Require().NoError(s.store.Create(s.ctx, s.newMembership(groupID, h1)))
	s.Require().NoError(s.store.Create(s.ctx, s.newMembership(groupID, h2)))
	otherGroup := id.GroupID(uuid.New())
	s.Require().NoError(s.store.Create(s.ctx, s.newMembership(otherGroup, h1)))

	s.Run("CurrentByGroup lists only the group's members", func() {
		current, err := s.store.CurrentByGroup(s.ctx, groupID, s.now)
		s.Require().NoError(err)
		s.Len(current, 2)
	})

	s.Run("CurrentByHousehold spans groups", func() {
		current, err := s.store.CurrentByHousehold(s.ctx, h1, s.now)
		s.Require().NoError(err)
		s.Len(current, 2)
	})

	s.Run("CountCurrentByGroup matches listing", func() {
		count, err := s.store.CountCurrentByGroup(s.ctx, groupID, s.now)
		s.Require().NoError(err)
		s.Equal(2, count)
	})
}
