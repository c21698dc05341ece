package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/platform/audit"
	"beredskap/pkg/platform/sentinel"
	"beredskap/pkg/requestcontext"
)

// CreateGroup registers a new active group. Only household admins may
// create groups. The creator is not enrolled here; callers that want the
// founding membership compose CreateGroup with FoundMembership.
func (s *Service) CreateGroup(ctx context.Context, name, requesterEmail string) (*models.Group, error) {
	admin, err := s.directory.IsHouseholdAdmin(ctx, requesterEmail)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin rights")
	}
	if !admin {
		return nil, dErrors.New(dErrors.CodeForbidden, "household admin rights required")
	}

	group, err := models.NewGroup(id.GroupID(uuid.New()), strings.TrimSpace(name), requesterEmail, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.groups.Create(txCtx, group); err != nil {
			return storeErr(err, "group not found")
		}
		s.auditEmitter.emit(txCtx, audit.ActionGroupCreated, group.ID, id.HouseholdID{}, group.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.GroupsCreated.Inc()
	}
	return group, nil
}

// FoundMembership enrolls the creator's household as the group's first
// member. Same duplicate guard as invitation-driven joins, so a retried
// create does not produce a second active row.
func (s *Service) FoundMembership(ctx context.Context, groupID id.GroupID, requesterEmail string) (*models.Membership, error) {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}

	var membership *models.Membership
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.activeGroup(txCtx, groupID); err != nil {
			return err
		}
		m, err := s.join(txCtx, groupID, householdID, requesterEmail)
		if err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.MembershipsStarted.Inc()
	}
	return membership, nil
}

// GetGroup fetches one group by id.
func (s *Service) GetGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, "group not found")
	}
	return group, nil
}

// CurrentUserGroup fetches one group the requester's household currently
// belongs to. Non-members get NotFound, same as an absent group.
func (s *Service) CurrentUserGroup(ctx context.Context, groupID id.GroupID, requesterEmail string) (*models.Group, error) {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if _, err := s.memberships.CurrentByGroupAndHousehold(ctx, groupID, householdID, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}
	return s.GetGroup(ctx, groupID)
}

// CurrentUserGroups lists the active groups the requester's household
// currently belongs to, newest first, as a zero-based page.
func (s *Service) CurrentUserGroups(ctx context.Context, requesterEmail string, page, size int) ([]*models.Group, error) {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	current, err := s.memberships.CurrentByHousehold(ctx, householdID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list memberships")
	}
	if len(current) == 0 {
		return []*models.Group{}, nil
	}

	groupIDs := make([]id.GroupID, 0, len(current))
	for _, m := range current {
		groupIDs = append(groupIDs, m.GroupID)
	}
	groups, err := s.groups.FindByIDs(ctx, groupIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load groups")
	}

	active := groups[:0]
	for _, g := range groups {
		if g.IsActive() {
			active = append(active, g)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return paginate(active, page, size, s.pageSize), nil
}

// archiveIfEmpty archives the group when no current memberships remain.
// Runs inside the leave transaction; archiving an archived group is a
// no-op, so concurrent leavers cannot double-archive.
func (s *Service) archiveIfEmpty(txCtx context.Context, groupID id.GroupID) error {
	count, err := s.memberships.CountCurrentByGroup(txCtx, groupID, requestcontext.Now(txCtx))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count members")
	}
	if count > 0 {
		return nil
	}

	group, err := s.groups.FindByID(txCtx, groupID)
	if err != nil {
		return storeErr(err, "group not found")
	}
	if !group.IsActive() {
		return nil
	}
	group.Archive()
	if err := s.groups.Update(txCtx, group); err != nil {
		return storeErr(err, "group not found")
	}
	s.auditEmitter.emit(txCtx, audit.ActionGroupArchived, group.ID, id.HouseholdID{}, "")
	if s.metrics != nil {
		s.metrics.GroupsArchived.Inc()
	}
	return nil
}
