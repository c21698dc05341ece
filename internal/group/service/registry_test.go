package service

import (
	"beredskap/internal/group/models"
	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/platform/audit"
)

func (s *EngineSuite) TestCreateGroup() {
	s.Run("admin creates an active group", func() {
		group, err := s.service.CreateGroup(s.ctx(smithAdmin), "Nabolagsberedskap", smithAdmin)
		s.Require().NoError(err)
		s.True(group.IsActive())
		s.Equal(smithAdmin, group.CreatedByUser)
		s.Equal(s.now, group.CreatedAt)
	})

	s.Run("non-admin is forbidden", func() {
		_, err := s.service.CreateGroup(s.ctx(smithMember), "Rogue Group", smithMember)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown email is forbidden, not an error", func() {
		_, err := s.service.CreateGroup(s.ctx(strangerEmail), "Ghost Group", strangerEmail)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("blank name is rejected before any write", func() {
		_, err := s.service.CreateGroup(s.ctx(smithAdmin), "   ", smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("creation does not enroll the creator", func() {
		group, err := s.service.CreateGroup(s.ctx(smithAdmin), "No Members Yet", smithAdmin)
		s.Require().NoError(err)

		households, err := s.memberships.CurrentByGroup(s.ctx(smithAdmin), group.ID, s.now)
		s.Require().NoError(err)
		s.Empty(households)
	})
}

func (s *EngineSuite) TestFoundMembership() {
	s.Run("creator household becomes the first member", func() {
		group, err := s.service.CreateGroup(s.ctx(smithAdmin), "Founders", smithAdmin)
		s.Require().NoError(err)

		membership, err := s.service.FoundMembership(s.ctx(smithAdmin), group.ID, smithAdmin)
		s.Require().NoError(err)
		s.Equal(s.smithHousehold, membership.HouseholdID)
		s.Nil(membership.LeftAt)
	})

	s.Run("retried founding reports Conflict, one active row", func() {
		group := s.createGroupWithFounder("Retry Town", smithAdmin)

		_, err := s.service.FoundMembership(s.ctx(smithAdmin), group.ID, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		count, err := s.memberships.CountCurrentByGroup(s.ctx(smithAdmin), group.ID, s.now)
		s.Require().NoError(err)
		s.Equal(1, count)
	})
}

func (s *EngineSuite) TestCurrentUserGroups() {
	s.Run("lists only groups the household currently belongs to", func() {
		g1 := s.createGroupWithFounder("Alpha", smithAdmin)
		s.createGroupWithFounder("Beta", jonesAdmin)

		groups, err := s.service.CurrentUserGroups(s.ctx(smithAdmin), smithAdmin, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(groups, 1)
		s.Equal(g1.ID, groups[0].ID)
	})

	s.Run("archived groups drop out of the listing", func() {
		group := s.createGroupWithFounder("Short Lived", smithAdmin)
		s.Require().NoError(s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin))

		groups, err := s.service.CurrentUserGroups(s.ctx(smithAdmin), smithAdmin, 0, 10)
		s.Require().NoError(err)
		for _, g := range groups {
			s.NotEqual(group.ID, g.ID)
		}
	})

	s.Run("pages beyond the data are empty, not an error", func() {
		s.createGroupWithFounder("Lonely", smithAdmin)

		groups, err := s.service.CurrentUserGroups(s.ctx(smithAdmin), smithAdmin, 5, 10)
		s.Require().NoError(err)
		s.Empty(groups)
	})
}

func (s *EngineSuite) TestGetGroup() {
	s.Run("fetches an existing group", func() {
		group := s.createGroupWithFounder("Fetchable", smithAdmin)

		found, err := s.service.GetGroup(s.ctx(smithAdmin), group.ID)
		s.Require().NoError(err)
		s.Equal(group.Name, found.Name)
	})

	s.Run("membership-guarded fetch hides groups from outsiders", func() {
		group := s.createGroupWithFounder("Private", smithAdmin)

		_, err := s.service.CurrentUserGroup(s.ctx(jonesAdmin), group.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		found, err := s.service.CurrentUserGroup(s.ctx(smithAdmin), group.ID, smithAdmin)
		s.Require().NoError(err)
		s.Equal(group.ID, found.ID)
	})
}

func (s *EngineSuite) TestAuditTrail() {
	group := s.createGroupWithFounder("Observed", smithAdmin)
	s.Require().NoError(s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin))

	actions := s.auditActions()
	s.Equal([]audit.Action{
		audit.ActionGroupCreated,
		audit.ActionMembershipStarted,
		audit.ActionMembershipEnded,
		audit.ActionGroupArchived,
	}, actions)

	events := s.auditLog.Events()
	s.Equal(smithAdmin, events[0].ActorEmail)
	s.Equal(group.ID, events[0].GroupID)
}

func (s *EngineSuite) TestArchivedGroupIsImmutable() {
	group := s.createGroupWithFounder("Doomed", smithAdmin)
	s.Require().NoError(s.service.Leave(s.ctx(smithAdmin), group.ID, smithAdmin))

	found, err := s.service.GetGroup(s.ctx(smithAdmin), group.ID)
	s.Require().NoError(err)
	s.Equal(models.GroupStatusArchived, found.Status)

	s.Run("no invitations", func() {
		_, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("no founding joins", func() {
		_, err := s.service.FoundMembership(s.ctx(jonesAdmin), group.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("no contributions", func() {
		typeID := s.addProductType(s.smithHousehold, "Vann")
		batchID := s.addBatch(s.smithHousehold, typeID, 6)
		_, err := s.service.ContributeBatch(s.ctx(smithAdmin), batchID, group.ID, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
