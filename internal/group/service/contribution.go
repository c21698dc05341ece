package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"beredskap/internal/group/models"
	"beredskap/internal/inventory"
	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
	"beredskap/pkg/platform/audit"
	"beredskap/pkg/platform/sentinel"
	"beredskap/pkg/requestcontext"
)

// ContributeBatch loans an inventory batch to the group's shared pool.
// Checks run in a fixed order so callers see stable failures: batch
// exists, group exists and is active, batch not contributed anywhere,
// requester is a current member, batch belongs to the requester's
// household. The insert re-checks batch uniqueness inside the
// transaction; concurrent racers lose with Conflict.
func (s *Service) ContributeBatch(ctx context.Context, batchID id.BatchID, groupID id.GroupID, requesterEmail string) (*models.Contribution, error) {
	batch, err := s.inventory.Batch(ctx, batchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "batch not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load batch")
	}
	if _, err := s.activeGroup(ctx, groupID); err != nil {
		return nil, err
	}
	contributed, err := s.contributions.ExistsForBatch(ctx, batchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check contributions")
	}
	if contributed {
		return nil, dErrors.New(dErrors.CodeConflict, "batch already contributed")
	}

	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberships.CurrentByGroupAndHousehold(ctx, groupID, householdID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "requester is not a member of the group")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}
	if batch.HouseholdID != householdID {
		return nil, dErrors.New(dErrors.CodeForbidden, "batch belongs to another household")
	}

	var contribution *models.Contribution
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		contributed, err := s.contributions.ExistsForBatch(txCtx, batchID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check contributions")
		}
		if contributed {
			return dErrors.New(dErrors.CodeConflict, "batch already contributed")
		}
		c := models.NewBatchContribution(id.ContributionID(uuid.New()), groupID, householdID, batchID, requestcontext.Now(txCtx))
		if err := s.contributions.Create(txCtx, c); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "batch already contributed")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contribution")
		}
		s.auditEmitter.emit(txCtx, audit.ActionContributionAdded, groupID, householdID, "batch "+batchID.String())
		contribution = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ContributionsAdded.Inc()
	}
	return contribution, nil
}

// ContributeCustom adds a manual entry to the group's pool. Same
// membership guard as batch contributions; no batch invariant applies.
func (s *Service) ContributeCustom(ctx context.Context, groupID id.GroupID, customName string, expiresAt *time.Time, requesterEmail string) (*models.Contribution, error) {
	if _, err := s.activeGroup(ctx, groupID); err != nil {
		return nil, err
	}
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberships.CurrentByGroupAndHousehold(ctx, groupID, householdID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "requester is not a member of the group")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}

	var contribution *models.Contribution
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := models.NewCustomContribution(id.ContributionID(uuid.New()), groupID, householdID, customName, expiresAt, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.contributions.Create(txCtx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contribution")
		}
		s.auditEmitter.emit(txCtx, audit.ActionContributionAdded, groupID, householdID, "custom "+c.CustomName)
		contribution = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ContributionsAdded.Inc()
	}
	return contribution, nil
}

// Retract hard deletes a contribution by id. An absent contribution is
// NotFound; one owned by another household is Forbidden. The two must
// stay distinguishable.
func (s *Service) Retract(ctx context.Context, contributionID id.ContributionID, requesterEmail string) error {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return err
	}
	contribution, err := s.contributions.FindByID(ctx, contributionID)
	if err != nil {
		return storeErr(err, "contribution not found")
	}
	return s.retract(ctx, contribution, householdID)
}

// RetractBatch hard deletes the contribution addressing the batch.
func (s *Service) RetractBatch(ctx context.Context, batchID id.BatchID, requesterEmail string) error {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return err
	}
	contribution, err := s.contributions.FindByBatchID(ctx, batchID)
	if err != nil {
		return storeErr(err, "contribution not found")
	}
	return s.retract(ctx, contribution, householdID)
}

func (s *Service) retract(ctx context.Context, contribution *models.Contribution, householdID id.HouseholdID) error {
	if contribution.HouseholdID != householdID {
		return dErrors.New(dErrors.CodeForbidden, "contribution belongs to another household")
	}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.contributions.Delete(txCtx, contribution.ID); err != nil {
			return storeErr(err, "contribution not found")
		}
		s.auditEmitter.emit(txCtx, audit.ActionContributionRemoved, contribution.GroupID, householdID, "")
		return nil
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ContributionsRemoved.Inc()
	}
	return nil
}

// TotalUnitsForProductType sums the unit counts of the group's
// contributed batches of one product type.
func (s *Service) TotalUnitsForProductType(ctx context.Context, productTypeID id.ProductTypeID, groupID id.GroupID) (int, error) {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		return 0, storeErr(err, "group not found")
	}
	exists, err := s.inventory.ProductTypeExists(ctx, productTypeID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check product type")
	}
	if !exists {
		return 0, dErrors.New(dErrors.CodeNotFound, "product type not found")
	}

	batches, err := s.contributedBatches(ctx, groupID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, b := range batches {
		if b.ProductTypeID == productTypeID {
			total += b.UnitCount
		}
	}
	return total, nil
}

// ContributedProductTypes lists product types with at least one
// contributed batch in the group, sorted by name. Membership-guarded.
func (s *Service) ContributedProductTypes(ctx context.Context, groupID id.GroupID, requesterEmail string, page, size int) ([]*inventory.ProductType, error) {
	types, err := s.contributedTypesForMember(ctx, groupID, requesterEmail)
	if err != nil {
		return nil, err
	}
	return paginate(types, page, size, s.pageSize), nil
}

// SearchContributedProductTypes narrows the contributed product types to
// those whose name contains the query, case-insensitively. An empty
// query matches everything.
func (s *Service) SearchContributedProductTypes(ctx context.Context, groupID id.GroupID, query, requesterEmail string, page, size int) ([]*inventory.ProductType, error) {
	types, err := s.contributedTypesForMember(ctx, groupID, requesterEmail)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	matched := types[:0:0]
	for _, pt := range types {
		if needle == "" || strings.Contains(strings.ToLower(pt.Name), needle) {
			matched = append(matched, pt)
		}
	}
	return paginate(matched, page, size, s.pageSize), nil
}

// contributedTypesForMember resolves the distinct product types behind
// the group's contributed batches, sorted by name. The requester must be
// a current member.
func (s *Service) contributedTypesForMember(ctx context.Context, groupID id.GroupID, requesterEmail string) ([]*inventory.ProductType, error) {
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberships.CurrentByGroupAndHousehold(ctx, groupID, householdID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "requester is not a member of the group")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}

	batches, err := s.contributedBatches(ctx, groupID)
	if err != nil {
		return nil, err
	}
	seen := make(map[id.ProductTypeID]bool)
	var types []*inventory.ProductType
	for _, b := range batches {
		if seen[b.ProductTypeID] {
			continue
		}
		seen[b.ProductTypeID] = true
		pt, err := s.inventory.ProductType(ctx, b.ProductTypeID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product type")
		}
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

// ContributedBatchesByType lists the group's contributed batches of one
// product type.
func (s *Service) ContributedBatchesByType(ctx context.Context, groupID id.GroupID, productTypeID id.ProductTypeID, page, size int) ([]*inventory.Batch, error) {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		return nil, storeErr(err, "group not found")
	}
	batches, err := s.contributedBatches(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var matched []*inventory.Batch
	for _, b := range batches {
		if b.ProductTypeID == productTypeID {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID.String() < matched[j].ID.String() })
	return paginate(matched, page, size, s.pageSize), nil
}

// IsBatchContributed reports whether the requester's batch is currently
// contributed to any group. Ownership-guarded.
func (s *Service) IsBatchContributed(ctx context.Context, batchID id.BatchID, requesterEmail string) (bool, error) {
	batch, err := s.inventory.Batch(ctx, batchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "batch not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load batch")
	}
	householdID, err := s.requesterHousehold(ctx, requesterEmail)
	if err != nil {
		return false, err
	}
	if batch.HouseholdID != householdID {
		return false, dErrors.New(dErrors.CodeForbidden, "batch belongs to another household")
	}
	contributed, err := s.contributions.ExistsForBatch(ctx, batchID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check contributions")
	}
	return contributed, nil
}

// contributedBatches resolves the group's contributed batch rows to
// inventory batches.
func (s *Service) contributedBatches(ctx context.Context, groupID id.GroupID) ([]*inventory.Batch, error) {
	batchIDs, err := s.contributions.BatchIDsByGroup(ctx, groupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contributions")
	}
	if len(batchIDs) == 0 {
		return nil, nil
	}
	batches, err := s.inventory.BatchesByIDs(ctx, batchIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load batches")
	}
	return batches, nil
}
