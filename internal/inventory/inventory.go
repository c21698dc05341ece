// Package inventory exposes the read-only batch and product-type lookups
// the contribution ledger needs. Inventory mutation lives in the inventory
// service, not here.
package inventory

import (
	"context"
	"time"

	id "beredskap/pkg/domain"
)

// ProductType describes one kind of supply a household stocks.
type ProductType struct {
	ID          id.ProductTypeID
	HouseholdID id.HouseholdID
	Name        string
	Unit        string
}

// Batch is one lot of a product type in a household's inventory.
type Batch struct {
	ID            id.BatchID
	ProductTypeID id.ProductTypeID
	HouseholdID   id.HouseholdID
	UnitCount     int
	ExpiresAt     *time.Time
}

// Store is the lookup surface. Implementations return
// sentinel.ErrNotFound for absent entities.
type Store interface {
	Batch(ctx context.Context, batchID id.BatchID) (*Batch, error)
	BatchesByIDs(ctx context.Context, ids []id.BatchID) ([]*Batch, error)
	ProductType(ctx context.Context, typeID id.ProductTypeID) (*ProductType, error)
	ProductTypeExists(ctx context.Context, typeID id.ProductTypeID) (bool, error)
}
