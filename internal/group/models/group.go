package models

import (
	"time"

	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
)

// GroupStatus is the lifecycle state of a group.
type GroupStatus string

const (
	// GroupStatusActive accepts memberships and contributions.
	GroupStatusActive GroupStatus = "active"
	// GroupStatusArchived is terminal: set when the last current
	// membership ends, immutable afterwards.
	GroupStatusArchived GroupStatus = "archived"
)

// Group is a preparedness group of households pooling crisis supplies.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status transitions: active → archived, never back
//   - A group archives exactly when its last current membership ends
type Group struct {
	ID            id.GroupID
	Name          string
	Status        GroupStatus
	CreatedByUser string
	CreatedAt     time.Time
}

func NewGroup(groupID id.GroupID, name, createdByUser string, now time.Time) (*Group, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "group name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "group name must be 128 characters or less")
	}
	return &Group{
		ID:            groupID,
		Name:          name,
		Status:        GroupStatusActive,
		CreatedByUser: createdByUser,
		CreatedAt:     now,
	}, nil
}

func (g *Group) IsActive() bool {
	return g.Status == GroupStatusActive
}

// Archive transitions the group to archived. Archiving an archived group
// is a no-op so the empty-group check stays idempotent.
func (g *Group) Archive() {
	g.Status = GroupStatusArchived
}
