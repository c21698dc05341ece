package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

// PostgresStore reads the inventory tables owned by the inventory service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const batchColumns = `b.id, b.product_type_id, t.household_id, b.unit_count, b.expires_at`

func (s *PostgresStore) Batch(ctx context.Context, batchID id.BatchID) (*Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+`
		 FROM product_batches b
		 JOIN product_types t ON t.id = b.product_type_id
		 WHERE b.id = $1`,
		uuid.UUID(batchID),
	)
	return scanBatch(row.Scan)
}

func (s *PostgresStore) BatchesByIDs(ctx context.Context, ids []id.BatchID) ([]*Batch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, batchID := range ids {
		raw[i] = uuid.UUID(batchID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+batchColumns+`
		 FROM product_batches b
		 JOIN product_types t ON t.id = b.product_type_id
		 WHERE b.id = ANY($1)`,
		pq.Array(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []*Batch
	for rows.Next() {
		b, err := scanBatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ProductType(ctx context.Context, typeID id.ProductTypeID) (*ProductType, error) {
	var pt ProductType
	var rawID, rawHousehold uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id, household_id, name, unit FROM product_types WHERE id = $1`,
		uuid.UUID(typeID),
	).Scan(&rawID, &rawHousehold, &pt.Name, &pt.Unit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product type: %w", err)
	}
	pt.ID = id.ProductTypeID(rawID)
	pt.HouseholdID = id.HouseholdID(rawHousehold)
	return &pt, nil
}

func (s *PostgresStore) ProductTypeExists(ctx context.Context, typeID id.ProductTypeID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM product_types WHERE id = $1)`,
		uuid.UUID(typeID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product type: %w", err)
	}
	return exists, nil
}

func scanBatch(scan func(dest ...any) error) (*Batch, error) {
	var b Batch
	var rawID, rawType, rawHousehold uuid.UUID
	var expiresAt sql.NullTime
	err := scan(&rawID, &rawType, &rawHousehold, &b.UnitCount, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	b.ID = id.BatchID(rawID)
	b.ProductTypeID = id.ProductTypeID(rawType)
	b.HouseholdID = id.HouseholdID(rawHousehold)
	if expiresAt.Valid {
		b.ExpiresAt = &expiresAt.Time
	}
	return &b, nil
}
