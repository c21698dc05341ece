package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"beredskap/internal/directory"
	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/platform/audit"
	"beredskap/pkg/platform/sentinel"
	"beredskap/pkg/requestcontext"
)

// CurrentMemberships lists a household's current tenures across groups.
func (s *Service) CurrentMemberships(ctx context.Context, householdID id.HouseholdID) ([]*models.Membership, error) {
	memberships, err := s.memberships.CurrentByHousehold(ctx, householdID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list memberships")
	}
	return memberships, nil
}

// CurrentMembershipInGroup fetches the household's active tenure in one
// group, or NotFound when none is ongoing at request time.
func (s *Service) CurrentMembershipInGroup(ctx context.Context, groupID id.GroupID, householdID id.HouseholdID) (*models.Membership, error) {
	m, err := s.memberships.CurrentByGroupAndHousehold(ctx, groupID, householdID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "membership not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
	}
	return m, nil
}

// ListCurrentHouseholds returns the households currently in the group,
// resolved through the directory. Requester must be a current member.
func (s *Service) ListCurrentHouseholds(ctx context.Context, groupID id.GroupID, requesterEmail string) ([]*directory.Household, error) {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if _, err := s.memberships.CurrentByGroupAndHousehold(ctx, groupID, householdID, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "requester is not a member of the group")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}

	current, err := s.memberships.CurrentByGroup(ctx, groupID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	ids := make([]id.HouseholdID, 0, len(current))
	for _, m := range current {
		ids = append(ids, m.HouseholdID)
	}
	households, err := s.directory.HouseholdsByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve households")
	}
	return households, nil
}

// Leave ends the requester household's tenure in the group. The requester
// must resolve to the member household and hold admin rights; every
// authorization failure surfaces as NotFound so callers cannot probe
// which groups a household belongs to. Success runs as one transaction:
// end the tenure, delete the household's contributions to the group,
// archive the group when it emptied.
func (s *Service) Leave(ctx context.Context, groupID id.GroupID, requesterEmail string) error {
	householdID, err := s.directory.HouseholdIDByEmail(ctx, requesterEmail)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "membership not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve household")
	}
	admin, err := s.directory.IsHouseholdAdmin(ctx, requesterEmail)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin rights")
	}
	if !admin {
		return dErrors.New(dErrors.CodeNotFound, "membership not found")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		membership, err := s.memberships.CurrentByGroupAndHousehold(txCtx, groupID, householdID, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "membership not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
		}

		membership.End(now)
		if err := s.memberships.Update(txCtx, membership); err != nil {
			return storeErr(err, "membership not found")
		}
		deleted, err := s.contributions.DeleteAllForHouseholdInGroup(txCtx, groupID, householdID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete contributions")
		}
		if err := s.archiveIfEmpty(txCtx, groupID); err != nil {
			return err
		}
		s.auditEmitter.emit(txCtx, audit.ActionMembershipEnded, groupID, householdID,
			fmt.Sprintf("contributions_deleted=%d", deleted))
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.MembershipsEnded.Inc()
	}
	return nil
}

// join starts a tenure for the household. Internal: callers run it inside
// a transaction and have already verified the group is active. An
// existing active tenure for the pair rejects with Conflict.
func (s *Service) join(txCtx context.Context, groupID id.GroupID, householdID id.HouseholdID, invitedByUser string) (*models.Membership, error) {
	now := requestcontext.Now(txCtx)
	if _, err := s.memberships.CurrentByGroupAndHousehold(txCtx, groupID, householdID, now); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "household is already a member of the group")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}

	membership := models.NewMembership(id.MembershipID(uuid.New()), groupID, householdID, invitedByUser, now)
	if err := s.memberships.Create(txCtx, membership); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "household is already a member of the group")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create membership")
	}
	s.auditEmitter.emit(txCtx, audit.ActionMembershipStarted, groupID, householdID, "")
	return membership, nil
}
