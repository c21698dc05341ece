package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/platform/audit"
	"beredskap/pkg/platform/sentinel"
	"beredskap/pkg/requestcontext"
)

// Invite creates a pending invitation for the named household. The
// inviter must be a household admin and a current member of the group.
// Rejected with Conflict when the household already belongs to the group
// or a pending invitation for the pair exists.
func (s *Service) Invite(ctx context.Context, groupID id.GroupID, invitedHouseholdName, inviterEmail string) (*models.Invitation, error) {
	invitedHouseholdName = strings.TrimSpace(invitedHouseholdName)
	if invitedHouseholdName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "household name is required")
	}

	inviterHousehold, err := s.requesterHousehold(ctx, inviterEmail)
	if err != nil {
		return nil, err
	}
	admin, err := s.directory.IsHouseholdAdmin(ctx, inviterEmail)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin rights")
	}
	if !admin {
		return nil, dErrors.New(dErrors.CodeForbidden, "household admin rights required")
	}

	invited, err := s.directory.HouseholdByName(ctx, invitedHouseholdName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve household")
	}

	var invitation *models.Invitation
	var groupName string
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		group, err := s.activeGroup(txCtx, groupID)
		if err != nil {
			return err
		}
		groupName = group.Name
		now := requestcontext.Now(txCtx)

		if _, err := s.memberships.CurrentByGroupAndHousehold(txCtx, groupID, inviterHousehold, now); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeForbidden, "inviter is not a member of the group")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
		}
		if _, err := s.memberships.CurrentByGroupAndHousehold(txCtx, groupID, invited.ID, now); err == nil {
			return dErrors.New(dErrors.CodeConflict, "household is already a member of the group")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
		}
		if _, err := s.invitations.PendingByGroupAndHousehold(txCtx, groupID, invited.ID, now); err == nil {
			return dErrors.New(dErrors.CodeConflict, "a pending invitation already exists for the household")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check invitations")
		}

		inv := models.NewInvitation(id.InvitationID(uuid.New()), groupID, inviterEmail, invited.ID, s.inviteTTL, now)
		if err := s.invitations.Create(txCtx, inv); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "a pending invitation already exists for the household")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create invitation")
		}
		s.auditEmitter.emit(txCtx, audit.ActionInvitationCreated, groupID, invited.ID, "")
		invitation = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notify only once the invitation is committed.
	s.notifyHousehold(ctx, invited.ID,
		fmt.Sprintf("Your household has been invited to join the group %q.", groupName))

	if s.metrics != nil {
		s.metrics.InvitationsCreated.Inc()
	}
	return invitation, nil
}

// Accept resolves a pending invitation and starts the membership in the
// same transaction. Acting on a resolved or expired invitation reports
// InvalidState and mutates nothing, so retries are safe.
func (s *Service) Accept(ctx context.Context, invitationID id.InvitationID, actingEmail string) (*models.Membership, error) {
	actingHousehold, err := s.requesterHousehold(ctx, actingEmail)
	if err != nil {
		return nil, err
	}

	var membership *models.Membership
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		invitation, err := s.loadOwnInvitation(txCtx, invitationID, actingHousehold)
		if err != nil {
			return err
		}
		if _, err := s.activeGroup(txCtx, invitation.GroupID); err != nil {
			return err
		}

		now := requestcontext.Now(txCtx)
		if !invitation.Accept(now) {
			return dErrors.New(dErrors.CodeInvalidState, "invitation is not pending")
		}
		if err := s.invitations.Update(txCtx, invitation); err != nil {
			return storeErr(err, "invitation not found")
		}
		m, err := s.join(txCtx, invitation.GroupID, invitation.InvitedHouseholdID, invitation.InviterEmail)
		if err != nil {
			return err
		}
		s.auditEmitter.emit(txCtx, audit.ActionInvitationAccepted, invitation.GroupID, invitation.InvitedHouseholdID, "")
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementInvitationResolved("accepted")
		s.metrics.MembershipsStarted.Inc()
	}
	return membership, nil
}

// Decline resolves a pending invitation without creating a membership.
// Same guard as Accept.
func (s *Service) Decline(ctx context.Context, invitationID id.InvitationID, actingEmail string) error {
	actingHousehold, err := s.requesterHousehold(ctx, actingEmail)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		invitation, err := s.loadOwnInvitation(txCtx, invitationID, actingHousehold)
		if err != nil {
			return err
		}
		if !invitation.Decline(requestcontext.Now(txCtx)) {
			return dErrors.New(dErrors.CodeInvalidState, "invitation is not pending")
		}
		if err := s.invitations.Update(txCtx, invitation); err != nil {
			return storeErr(err, "invitation not found")
		}
		s.auditEmitter.emit(txCtx, audit.ActionInvitationDeclined, invitation.GroupID, invitation.InvitedHouseholdID, "")
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementInvitationResolved("declined")
	}
	return nil
}

// ListPending returns the requester household's pending invitations.
// Expired invitations drop out of the derived predicate without a write.
func (s *Service) ListPending(ctx context.Context, requesterEmail string) ([]*models.Invitation, error) {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}
	pending, err := s.invitations.PendingByHousehold(ctx, householdID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list invitations")
	}
	return pending, nil
}

// loadOwnInvitation fetches an invitation and verifies the acting
// household is the invited one.
func (s *Service) loadOwnInvitation(ctx context.Context, invitationID id.InvitationID, actingHousehold id.HouseholdID) (*models.Invitation, error) {
	invitation, err := s.invitations.FindByID(ctx, invitationID)
	if err != nil {
		return nil, storeErr(err, "invitation not found")
	}
	if invitation.InvitedHouseholdID != actingHousehold {
		return nil, dErrors.New(dErrors.CodeForbidden, "invitation belongs to another household")
	}
	return invitation, nil
}
