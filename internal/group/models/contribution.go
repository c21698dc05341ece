package models

import (
	"time"

	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
)

// Contribution is a household's loan of one inventory batch, or a
// custom/manual entry, to a group's shared pool. Contributions are hard
// deleted on retraction and on departure cascade; a batch freed that way
// may be contributed again.
//
// Invariant (system-wide): a batch id appears in at most one live
// contribution row across all groups.
type Contribution struct {
	ID            id.ContributionID
	GroupID       id.GroupID
	HouseholdID   id.HouseholdID
	BatchID       *id.BatchID
	CustomName    string
	ExpirationAt  *time.Time
	ContributedAt time.Time
}

// NewBatchContribution loans an inventory batch to a group.
func NewBatchContribution(contributionID id.ContributionID, groupID id.GroupID, householdID id.HouseholdID, batchID id.BatchID, now time.Time) *Contribution {
	b := batchID
	return &Contribution{
		ID:            contributionID,
		GroupID:       groupID,
		HouseholdID:   householdID,
		BatchID:       &b,
		ContributedAt: now,
	}
}

// NewCustomContribution adds a manual entry without a backing batch.
func NewCustomContribution(contributionID id.ContributionID, groupID id.GroupID, householdID id.HouseholdID, customName string, expirationAt *time.Time, now time.Time) (*Contribution, error) {
	if customName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "custom contribution needs a name")
	}
	return &Contribution{
		ID:            contributionID,
		GroupID:       groupID,
		HouseholdID:   householdID,
		CustomName:    customName,
		ExpirationAt:  expirationAt,
		ContributedAt: now,
	}, nil
}

// IsBatchBacked reports whether the contribution references an inventory
// batch (as opposed to a manual entry).
func (c *Contribution) IsBatchBacked() bool {
	return c.BatchID != nil
}
