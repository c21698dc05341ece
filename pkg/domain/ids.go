// Package domain defines the typed identifiers shared across services.
//
// Each id is a distinct type over uuid.UUID so that a group id can never be
// passed where a household id is expected. Conversions are explicit at the
// boundaries (stores, handlers).
package domain

import "github.com/google/uuid"

type (
	// GroupID identifies a preparedness group.
	GroupID uuid.UUID
	// HouseholdID identifies a household, the membership-holding unit.
	HouseholdID uuid.UUID
	// MembershipID identifies one membership tenure row.
	MembershipID uuid.UUID
	// InvitationID identifies a group invitation.
	InvitationID uuid.UUID
	// ContributionID identifies a group inventory contribution.
	ContributionID uuid.UUID
	// BatchID identifies a product batch in a household's inventory.
	BatchID uuid.UUID
	// ProductTypeID identifies an inventory product type.
	ProductTypeID uuid.UUID
	// UserID identifies an individual user account.
	UserID uuid.UUID
)

func (id GroupID) String() string        { return uuid.UUID(id).String() }
func (id MembershipID) String() string   { return uuid.UUID(id).String() }
func (id HouseholdID) String() string    { return uuid.UUID(id).String() }
func (id InvitationID) String() string   { return uuid.UUID(id).String() }
func (id ContributionID) String() string { return uuid.UUID(id).String() }
func (id BatchID) String() string        { return uuid.UUID(id).String() }
func (id ProductTypeID) String() string  { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }

func (id GroupID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id MembershipID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id HouseholdID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id InvitationID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ContributionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BatchID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ProductTypeID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

// ParseGroupID parses a group id from its string form.
func ParseGroupID(s string) (GroupID, error) {
	u, err := uuid.Parse(s)
	return GroupID(u), err
}

// ParseHouseholdID parses a household id from its string form.
func ParseHouseholdID(s string) (HouseholdID, error) {
	u, err := uuid.Parse(s)
	return HouseholdID(u), err
}

// ParseInvitationID parses an invitation id from its string form.
func ParseInvitationID(s string) (InvitationID, error) {
	u, err := uuid.Parse(s)
	return InvitationID(u), err
}

// ParseContributionID parses a contribution id from its string form.
func ParseContributionID(s string) (ContributionID, error) {
	u, err := uuid.Parse(s)
	return ContributionID(u), err
}

// ParseBatchID parses a batch id from its string form.
func ParseBatchID(s string) (BatchID, error) {
	u, err := uuid.Parse(s)
	return BatchID(u), err
}

// ParseProductTypeID parses a product type id from its string form.
func ParseProductTypeID(s string) (ProductTypeID, error) {
	u, err := uuid.Parse(s)
	return ProductTypeID(u), err
}
