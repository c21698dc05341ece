package service

import (
	"context"
	"errors"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/platform/sentinel"
)

// storeErr translates a store sentinel into a coded domain error at the
// service boundary. notFoundMsg names the missing entity for the caller.
func storeErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting state")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store operation failed")
	}
}

// requesterHousehold resolves the acting user's household.
func (s *Service) requesterHousehold(ctx context.Context, email string) (id.HouseholdID, error) {
	householdID, err := s.directory.HouseholdIDByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.HouseholdID{}, dErrors.New(dErrors.CodeNotFound, "household not found")
		}
		return id.HouseholdID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve household")
	}
	return householdID, nil
}

// activeGroup loads a group and rejects archived ones. Archived groups
// accept no invitations, joins or contributions.
func (s *Service) activeGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, "group not found")
	}
	if !group.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "group is archived")
	}
	return group, nil
}
