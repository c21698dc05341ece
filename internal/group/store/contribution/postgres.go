package contribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
	"beredskap/pkg/platform/tx"
)

// Postgres persists contributions in PostgreSQL. A partial unique index
// on product_batch_id (where not null) backs the one-contribution-per-
// batch invariant; the 23505 unique violation surfaces as ErrConflict so
// concurrent contributors lose cleanly.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) exec(ctx context.Context) execer {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, contribution *models.Contribution) error {
	var batchID any
	if contribution.BatchID != nil {
		batchID = uuid.UUID(*contribution.BatchID)
	}
	var customName any
	if contribution.CustomName != "" {
		customName = contribution.CustomName
	}
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO group_contributions
		   (id, group_id, household_id, product_batch_id, custom_name, expiration_at, contributed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(contribution.ID), uuid.UUID(contribution.GroupID), uuid.UUID(contribution.HouseholdID),
		batchID, customName, contribution.ExpirationAt, contribution.ContributedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, contributionID id.ContributionID) (*models.Contribution, error) {
	return scanContribution(s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, group_id, household_id, product_batch_id, custom_name, expiration_at, contributed_at
		 FROM group_contributions WHERE id = $1`,
		uuid.UUID(contributionID),
	))
}

func (s *Postgres) FindByBatchID(ctx context.Context, batchID id.BatchID) (*models.Contribution, error) {
	return scanContribution(s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, group_id, household_id, product_batch_id, custom_name, expiration_at, contributed_at
		 FROM group_contributions WHERE product_batch_id = $1`,
		uuid.UUID(batchID),
	))
}

func (s *Postgres) ExistsForBatch(ctx context.Context, batchID id.BatchID) (bool, error) {
	var exists bool
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_contributions WHERE product_batch_id = $1)`,
		uuid.UUID(batchID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contributed batch: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Delete(ctx context.Context, contributionID id.ContributionID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM group_contributions WHERE id = $1`,
		uuid.UUID(contributionID),
	)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteAllForHouseholdInGroup(ctx context.Context, groupID id.GroupID, householdID id.HouseholdID) (int, error) {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM group_contributions WHERE group_id = $1 AND household_id = $2`,
		uuid.UUID(groupID), uuid.UUID(householdID),
	)
	if err != nil {
		return 0, fmt.Errorf("delete contributions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete contributions: %w", err)
	}
	return int(affected), nil
}

func (s *Postgres) BatchIDsByGroup(ctx context.Context, groupID id.GroupID) ([]id.BatchID, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT product_batch_id FROM group_contributions
		 WHERE group_id = $1 AND product_batch_id IS NOT NULL`,
		uuid.UUID(groupID),
	)
	if err != nil {
		return nil, fmt.Errorf("select contributed batches: %w", err)
	}
	defer rows.Close()

	var batchIDs []id.BatchID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan contributed batch: %w", err)
		}
		batchIDs = append(batchIDs, id.BatchID(raw))
	}
	return batchIDs, rows.Err()
}

func (s *Postgres) ByGroup(ctx context.Context, groupID id.GroupID) ([]*models.Contribution, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT id, group_id, household_id, product_batch_id, custom_name, expiration_at, contributed_at
		 FROM group_contributions WHERE group_id = $1
		 ORDER BY contributed_at DESC`,
		uuid.UUID(groupID),
	)
	if err != nil {
		return nil, fmt.Errorf("select contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*models.Contribution
	for rows.Next() {
		contribution, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, contribution)
	}
	return contributions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContribution(row rowScanner) (*models.Contribution, error) {
	var (
		contribution models.Contribution
		rawID        uuid.UUID
		groupID      uuid.UUID
		householdID  uuid.UUID
		batchID      uuid.NullUUID
		customName   sql.NullString
		expirationAt sql.NullTime
	)
	err := row.Scan(&rawID, &groupID, &householdID, &batchID, &customName, &expirationAt, &contribution.ContributedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan contribution: %w", err)
	}
	contribution.ID = id.ContributionID(rawID)
	contribution.GroupID = id.GroupID(groupID)
	contribution.HouseholdID = id.HouseholdID(householdID)
	if batchID.Valid {
		b := id.BatchID(batchID.UUID)
		contribution.BatchID = &b
	}
	contribution.CustomName = customName.String
	if expirationAt.Valid {
		t := expirationAt.Time
		contribution.ExpirationAt = &t
	}
	return &contribution, nil
}
