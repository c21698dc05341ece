package service

import (
	"time"

	"beredskap/internal/group/models"
	dErrors "beredskap/pkg/domain-errors"
)

func (s *EngineSuite) TestLeave() {
	s.Run("ends the tenure and keeps the group active for others", func() {
		group := s.createGroupWithFounder("Two Households", smithAdmin)
		s.enroll(group.ID, "Jones", smithAdmin, jonesAdmin)

		s.Require().NoError(s.service.Leave(s.ctx(jonesAdmin), group.ID, jonesAdmin))

		found, err := s.service.GetGroup(s.ctx(smithAdmin), group.ID)
		s.Require().NoError(err)
		s.Equal(models.GroupStatusActive, found.Status)

		count, err := s.memberships.CountCurrentByGroup(s.ctx(smithAdmin), group.ID, s.now)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("leaving as the sole member archives the group", func() {
		group := s.createGroupWithFounder("Solo", smithAdmin)

		s.Require().NoError(s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin))

		found, err := s.service.GetGroup(s.ctx(smithAdmin), group.ID)
		s.Require().NoError(err)
		s.Equal(models.GroupStatusArchived, found.Status)
	})

	s.Run("second leave reports NotFound", func() {
		group := s.createGroupWithFounder("Once Only", smithAdmin)
		s.Require().NoError(s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin))

		err := s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("non-admin requester sees NotFound, not Forbidden", func() {
		group := s.createGroupWithFounder("Locked", smithAdmin)

		err := s.service.Leave(s.ctx(smithMember), group.ID, smithMember)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("outsider admin sees NotFound", func() {
		group := s.createGroupWithFounder("Members Only", smithAdmin)

		err := s.service.Leave(s.ctx(jonesAdmin), group.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestLeaveCascade() {
	group := s.createGroupWithFounder("Pooling", smithAdmin)
	s.enroll(group.ID, "Jones", smithAdmin, jonesAdmin)

	waterType := s.addProductType(s.smithHousehold, "Vann")
	smithBatch := s.addBatch(s.smithHousehold, waterType, 6)
	jonesType := s.addProductType(s.jonesHousehold, "Hermetikk")
	jonesBatch := s.addBatch(s.jonesHousehold, jonesType, 12)

	_, err := s.service.ContributeBatch(s.ctx(smithAdmin), smithBatch, group.ID, smithAdmin)
	s.Require().NoError(err)
	_, err = s.service.ContributeBatch(s.ctx(jonesAdmin), jonesBatch, group.ID, jonesAdmin)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin))

	s.Run("deletes exactly the leaver's contributions", func() {
		contributed, err := s.contributions.ExistsForBatch(s.ctx(jonesAdmin), smithBatch)
		s.Require().NoError(err)
		s.False(contributed)

		contributed, err = s.contributions.ExistsForBatch(s.ctx(jonesAdmin), jonesBatch)
		s.Require().NoError(err)
		s.True(contributed)
	})

	s.Run("freed batch may be contributed again", func() {
		other := s.createGroupWithFounder("Second Home", smithAdmin)
		_, err := s.service.ContributeBatch(s.ctx(smithAdmin), smithBatch, other.ID, smithAdmin)
		s.Require().NoError(err)
	})
}

func (s *EngineSuite) TestListCurrentHouseholds() {
	group := s.createGroupWithFounder("Directory", smithAdmin)
	s.enroll(group.ID, "Jones", smithAdmin, jonesAdmin)

	s.Run("members see every current household", func() {
		households, err := s.service.ListCurrentHouseholds(s.ctx(smithAdmin), group.ID, smithAdmin)
		s.Require().NoError(err)
		s.Len(households, 2)
	})

	s.Run("non-members are forbidden", func() {
		s.Require().NoError(s.service.Leave(s.ctx(jonesAdmin), group.ID, jonesAdmin))

		_, err := s.service.ListCurrentHouseholds(s.ctx(jonesAdmin), group.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *EngineSuite) TestMembershipQueries() {
	group := s.createGroupWithFounder("Queries", smithAdmin)

	s.Run("current membership in group resolves", func() {
		m, err := s.service.CurrentMembershipInGroup(s.ctx(smithAdmin), group.ID, s.smithHousehold)
		s.Require().NoError(err)
		s.Equal(s.smithHousehold, m.HouseholdID)
		s.Equal(s.now, m.JoinedAt)
	})

	s.Run("ended tenure is invisible at a later instant", func() {
		s.Require().NoError(s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin))

		later := s.now.Add(time.Minute)
		_, err := s.service.CurrentMembershipInGroup(s.ctxAt(smithAdmin, later), group.ID, s.smithHousehold)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("current memberships across groups", func() {
		g1 := s.createGroupWithFounder("Multi A", jonesAdmin)
		g2 := s.createGroupWithFounder("Multi B", jonesAdmin)

		memberships, err := s.service.CurrentMemberships(s.ctx(jonesAdmin), s.jonesHousehold)
		s.Require().NoError(err)
		s.Require().Len(memberships, 2)
		groupIDs := map[string]bool{
			memberships[0].GroupID.String(): true,
			memberships[1].GroupID.String(): true,
		}
		s.True(groupIDs[g1.ID.String()])
		s.True(groupIDs[g2.ID.String()])
	})
}
