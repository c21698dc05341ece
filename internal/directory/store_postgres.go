package directory

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

// PostgresStore reads the identity tables owned by the user service. The
// group engine only ever reads them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) HouseholdIDByEmail(ctx context.Context, email string) (id.HouseholdID, error) {
	var householdID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT household_id FROM users WHERE email = $1 AND household_id IS NOT NULL`,
		email,
	).Scan(&householdID)
	if errors.Is(err, sql.ErrNoRows) {
		return id.HouseholdID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return id.HouseholdID{}, fmt.Errorf("resolve household by email: %w", err)
	}
	return id.HouseholdID(householdID), nil
}

func (s *PostgresStore) IsHouseholdAdmin(ctx context.Context, email string) (bool, error) {
	var isAdmin bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM household_admins ha
			JOIN users u ON u.id = ha.user_id
			WHERE u.email = $1
		)`,
		email,
	).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("check household admin: %w", err)
	}
	return isAdmin, nil
}

func (s *PostgresStore) HouseholdByName(ctx context.Context, name string) (*Household, error) {
	return s.scanHousehold(s.db.QueryRowContext(ctx,
		`SELECT id, name, address, population_count, latitude, longitude
		 FROM households WHERE name = $1`,
		name,
	))
}

func (s *PostgresStore) Household(ctx context.Context, householdID id.HouseholdID) (*Household, error) {
	return s.scanHousehold(s.db.QueryRowContext(ctx,
		`SELECT id, name, address, population_count, latitude, longitude
		 FROM households WHERE id = $1`,
		uuid.UUID(householdID),
	))
}

func (s *PostgresStore) HouseholdsByIDs(ctx context.Context, ids []id.HouseholdID) ([]*Household, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, householdID := range ids {
		raw[i] = uuid.UUID(householdID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, population_count, latitude, longitude
		 FROM households WHERE id = ANY($1)`,
		pq.Array(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var out []*Household
	for rows.Next() {
		var h Household
		var rawID uuid.UUID
		if err := rows.Scan(&rawID, &h.Name, &h.Address, &h.PopulationCount, &h.Latitude, &h.Longitude); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		h.ID = id.HouseholdID(rawID)
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) scanHousehold(row *sql.Row) (*Household, error) {
	var h Household
	var rawID uuid.UUID
	err := row.Scan(&rawID, &h.Name, &h.Address, &h.PopulationCount, &h.Latitude, &h.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan household: %w", err)
	}
	h.ID = id.HouseholdID(rawID)
	return &h, nil
}
