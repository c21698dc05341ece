package models

import (
	"time"

	id "beredskap/pkg/domain"
)

// InvitationState is derived from the invitation's timestamps, never
// stored. Expiry in particular is a pure function of ExpiresAt and the
// evaluation time, so no background job has to mark invitations expired.
type InvitationState string

const (
	InvitationPending  InvitationState = "pending"
	InvitationAccepted InvitationState = "accepted"
	InvitationDeclined InvitationState = "declined"
	InvitationExpired  InvitationState = "expired"
)

// Invitation asks a household to join a group. It is a precursor event:
// acceptance consumes it into a Membership and the row remains as an
// audit record.
//
// At most one pending invitation may exist per (group, household) pair;
// the store enforces it on creation, not as a constraint over historical
// rows.
type Invitation struct {
	ID                 id.InvitationID
	GroupID            id.GroupID
	InviterEmail       string
	InvitedHouseholdID id.HouseholdID
	ExpiresAt          time.Time
	AcceptedAt         *time.Time
	DeclinedAt         *time.Time
	CreatedAt          time.Time
}

// NewInvitation creates a pending invitation expiring after ttl.
func NewInvitation(invitationID id.InvitationID, groupID id.GroupID, inviterEmail string, invitedHouseholdID id.HouseholdID, ttl time.Duration, now time.Time) *Invitation {
	return &Invitation{
		ID:                 invitationID,
		GroupID:            groupID,
		InviterEmail:       inviterEmail,
		InvitedHouseholdID: invitedHouseholdID,
		ExpiresAt:          now.Add(ttl),
		CreatedAt:          now,
	}
}

// State derives the invitation state as of now. Accepted and declined
// win over expired: a resolved invitation stays resolved even after its
// expiry passes.
func (i *Invitation) State(now time.Time) InvitationState {
	switch {
	case i.AcceptedAt != nil:
		return InvitationAccepted
	case i.DeclinedAt != nil:
		return InvitationDeclined
	case !i.ExpiresAt.After(now):
		return InvitationExpired
	default:
		return InvitationPending
	}
}

// IsPending reports whether the invitation can still be acted on.
func (i *Invitation) IsPending(now time.Time) bool {
	return i.State(now) == InvitationPending
}

// Accept marks the invitation accepted. Returns false, mutating nothing,
// when the invitation is not pending; retried accepts are safe.
func (i *Invitation) Accept(now time.Time) bool {
	if !i.IsPending(now) {
		return false
	}
	t := now
	i.AcceptedAt = &t
	return true
}

// Decline marks the invitation declined. Same guard as Accept.
func (i *Invitation) Decline(now time.Time) bool {
	if !i.IsPending(now) {
		return false
	}
	t := now
	i.DeclinedAt = &t
	return true
}
