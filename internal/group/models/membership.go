package models

import (
	"time"

	id "beredskap/pkg/domain"
)

// Membership is one household's tenure in one group. Rows are
// append-only: leaving sets LeftAt, nothing is ever deleted, so the table
// doubles as the membership audit trail.
//
// Invariant: for a (group, household) pair any number of ended rows may
// exist, but at most one with LeftAt unset.
type Membership struct {
	ID            id.MembershipID
	GroupID       id.GroupID
	HouseholdID   id.HouseholdID
	InvitedByUser string
	JoinedAt      time.Time
	LeftAt        *time.Time
}

// NewMembership starts an active tenure.
func NewMembership(membershipID id.MembershipID, groupID id.GroupID, householdID id.HouseholdID, invitedByUser string, now time.Time) *Membership {
	return &Membership{
		ID:            membershipID,
		GroupID:       groupID,
		HouseholdID:   householdID,
		InvitedByUser: invitedByUser,
		JoinedAt:      now,
	}
}

// IsCurrent reports whether the tenure is ongoing as of now. A LeftAt
// in the future still counts as current.
func (m *Membership) IsCurrent(now time.Time) bool {
	return m.LeftAt == nil || m.LeftAt.After(now)
}

// End closes the tenure. Ending an already-ended tenure keeps the
// original departure time.
func (m *Membership) End(now time.Time) {
	if m.LeftAt == nil {
		t := now
		m.LeftAt = &t
	}
}
