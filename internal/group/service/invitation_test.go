package service

import (
	"context"
	"time"

	dErrors "beredskap/pkg/domain-errors"
)

func (s *EngineSuite) TestInvite() {
	group := s.createGroupWithFounder("Inviting", smithAdmin)

	s.Run("creates a pending invitation and notifies the household", func() {
		invitation, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().NoError(err)
		s.Equal(s.jonesHousehold, invitation.InvitedHouseholdID)
		s.Equal(s.now.Add(7*24*time.Hour), invitation.ExpiresAt)

		sent := s.notifier.Sent()
		s.Require().Len(sent, 1)
		s.Equal(s.jonesHousehold, sent[0].HouseholdID)
	})

	s.Run("duplicate pending invitation is a Conflict", func() {
		_, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown household name is NotFound", func() {
		_, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Nobody", smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("already-member household is a Conflict", func() {
		_, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Smith", smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-admin inviter is forbidden", func() {
		_, err := s.service.Invite(s.ctx(smithMember), group.ID, "Jones", smithMember)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin of a non-member household is forbidden", func() {
		outsider := s.createGroupWithFounder("Elsewhere", jonesAdmin)
		_, err := s.service.Invite(s.ctx(smithAdmin), outsider.ID, "Smith", smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// commitFailTx runs the callback, then reports the commit as failed.
type commitFailTx struct{}

func (commitFailTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return dErrors.New(dErrors.CodeInternal, "transaction failed: commit aborted")
}

func (s *EngineSuite) TestInviteNotifiesOnlyAfterCommit() {
	group := s.createGroupWithFounder("Inviting", smithAdmin)

	failing := New(
		s.groups, s.memberships, s.invitations, s.contributions,
		s.directory, s.inventory,
		WithNotifier(s.notifier),
		WithStoreTx(commitFailTx{}),
	)

	_, err := failing.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.notifier.Sent())
}

func (s *EngineSuite) TestAccept() {
	s.Run("accept creates the membership in the same step", func() {
		group := s.createGroupWithFounder("Welcoming", smithAdmin)
		invitation, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().NoError(err)

		membership, err := s.service.Accept(s.ctx(jonesAdmin), invitation.ID, jonesAdmin)
		s.Require().NoError(err)
		s.Equal(s.jonesHousehold, membership.HouseholdID)
		s.Equal(group.ID, membership.GroupID)
		s.Equal(smithAdmin, membership.InvitedByUser)
	})

	s.Run("second accept reports InvalidState, one active row", func() {
		group := s.createGroupWithFounder("Retry Accept", smithAdmin)
		invitation, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().NoError(err)

		_, err = s.service.Accept(s.ctx(jonesAdmin), invitation.ID, jonesAdmin)
		s.Require().NoError(err)
		_, err = s.service.Accept(s.ctx(jonesAdmin), invitation.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		count, err := s.memberships.CountCurrentByGroup(s.ctx(jonesAdmin), group.ID, s.now)
		s.Require().NoError(err)
		s.Equal(2, count)
	})

	s.Run("accept after expiry reports InvalidState, no membership", func() {
		group := s.createGroupWithFounder("Expired Offer", smithAdmin)
		invitation, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().NoError(err)

		afterExpiry := invitation.ExpiresAt.Add(time.Minute)
		_, err = s.service.Accept(s.ctxAt(jonesAdmin, afterExpiry), invitation.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		count, err := s.memberships.CountCurrentByGroup(s.ctx(jonesAdmin), group.ID, afterExpiry)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("accept by another household is forbidden", func() {
		group := s.createGroupWithFounder("Wrong Hands", smithAdmin)
		invitation, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().NoError(err)

		_, err = s.service.Accept(s.ctx(smithAdmin), invitation.ID, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown invitation is NotFound", func() {
		_, err := s.service.Accept(s.ctx(jonesAdmin), newInvitationID(), jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestDecline() {
	group := s.createGroupWithFounder("Declining", smithAdmin)
	invitation, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
	s.Require().NoError(err)

	s.Run("decline resolves without a membership", func() {
		s.Require().NoError(s.service.Decline(s.ctx(jonesAdmin), invitation.ID, jonesAdmin))

		count, err := s.memberships.CountCurrentByGroup(s.ctx(jonesAdmin), group.ID, s.now)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("accept after decline reports InvalidState", func() {
		_, err := s.service.Accept(s.ctx(jonesAdmin), invitation.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("declined pair can be invited again", func() {
		_, err := s.service.Invite(s.ctx(smithAdmin), group.ID, "Jones", smithAdmin)
		s.Require().NoError(err)
	})
}

func (s *EngineSuite) TestListPending() {
	g1 := s.createGroupWithFounder("Pile A", smithAdmin)
	g2 := s.createGroupWithFounder("Pile B", smithAdmin)
	inv1, err := s.service.Invite(s.ctx(smithAdmin), g1.ID, "Jones", smithAdmin)
	s.Require().NoError(err)
	_, err = s.service.Invite(s.ctx(smithAdmin), g2.ID, "Jones", smithAdmin)
	s.Require().NoError(err)

	s.Run("lists all pending invitations for the household", func() {
		pending, err := s.service.ListPending(s.ctx(jonesAdmin), jonesAdmin)
		s.Require().NoError(err)
		s.Len(pending, 2)
	})

	s.Run("expired invitations drop out without a write", func() {
		afterExpiry := inv1.ExpiresAt.Add(time.Minute)
		pending, err := s.service.ListPending(s.ctxAt(jonesAdmin, afterExpiry), jonesAdmin)
		s.Require().NoError(err)
		s.Empty(pending)
	})

	s.Run("resolved invitations drop out", func() {
		s.Require().NoError(s.service.Decline(s.ctx(jonesAdmin), inv1.ID, jonesAdmin))

		pending, err := s.service.ListPending(s.ctx(jonesAdmin), jonesAdmin)
		s.Require().NoError(err)
		s.Len(pending, 1)
	})
}
