// Package directory resolves user identities to households and answers
// household-admin checks. The group engine consults it for every
// authorization decision; it owns no group state itself.
package directory

import (
	"context"

	id "beredskap/pkg/domain"
)

// Household is the unit that owns inventory and holds group memberships.
type Household struct {
	ID              id.HouseholdID
	Name            string
	Address         string
	PopulationCount int
	Latitude        float64
	Longitude       float64
}

// Store is the lookup surface the engine consumes. Implementations return
// sentinel.ErrNotFound for absent entities.
type Store interface {
	// HouseholdIDByEmail resolves a user's email to their household.
	HouseholdIDByEmail(ctx context.Context, email string) (id.HouseholdID, error)
	// IsHouseholdAdmin reports whether the user behind the email holds
	// admin rights for their household. Unknown emails are not admins.
	IsHouseholdAdmin(ctx context.Context, email string) (bool, error)
	// HouseholdByName resolves a household by its exact name.
	HouseholdByName(ctx context.Context, name string) (*Household, error)
	// Household fetches one household by id.
	Household(ctx context.Context, householdID id.HouseholdID) (*Household, error)
	// HouseholdsByIDs fetches households in bulk, skipping unknown ids.
	HouseholdsByIDs(ctx context.Context, ids []id.HouseholdID) ([]*Household, error)
}
