package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
	"beredskap/pkg/platform/tx"
)

// Postgres persists memberships in PostgreSQL. A partial unique index on
// (group_id, household_id) WHERE left_at IS NULL backs the at-most-one
// active tenure invariant against concurrent joins.
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

func (s *Postgres) Create(ctx context.Context, membership *models.Membership) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO group_memberships (id, group_id, household_id, invited_by_user, joined_at, left_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(membership.ID), uuid.UUID(membership.GroupID), uuid.UUID(membership.HouseholdID),
		membership.InvitedByUser, membership.JoinedAt, membership.LeftAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// Update persists the end of a tenure. Rows are append-only and left_at
// is the only mutable column; the guard makes ending a row a one-shot
// write, so concurrent leavers race to a single winner.
func (s *Postgres) Update(ctx context.Context, membership *models.Membership) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE group_memberships SET left_at = $2 WHERE id = $1 AND left_at IS NULL`,
		uuid.UUID(membership.ID), membership.LeftAt,
	)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CurrentByGroupAndHousehold(ctx context.Context, groupID id.GroupID, householdID id.HouseholdID, now time.Time) (*models.Membership, error) {
	return scanMembership(s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, group_id, household_id, invited_by_user, joined_at, left_at
		 FROM group_memberships
		 WHERE group_id = $1 AND household_id = $2 AND (left_at IS NULL OR left_at > $3)`,
		uuid.UUID(groupID), uuid.UUID(householdID), now,
	))
}

func (s *Postgres) CurrentByHousehold(ctx context.Context, householdID id.HouseholdID, now time.Time) ([]*models.Membership, error) {
	return s.queryMemberships(ctx,
		`SELECT id, group_id, household_id, invited_by_user, joined_at, left_at
		 FROM group_memberships
		 WHERE household_id = $1 AND (left_at IS NULL OR left_at > $2)`,
		uuid.UUID(householdID), now,
	)
}

func (s *Postgres) CurrentByGroup(ctx context.Context, groupID id.GroupID, now time.Time) ([]*models.Membership, error) {
	return s.queryMemberships(ctx,
		`SELECT id, group_id, household_id, invited_by_user, joined_at, left_at
		 FROM group_memberships
		 WHERE group_id = $1 AND (left_at IS NULL OR left_at > $2)`,
		uuid.UUID(groupID), now,
	)
}

func (s *Postgres) CountCurrentByGroup(ctx context.Context, groupID id.GroupID, now time.Time) (int, error) {
	var count int
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_memberships
		 WHERE group_id = $1 AND (left_at IS NULL OR left_at > $2)`,
		uuid.UUID(groupID), now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return count, nil
}

func (s *Postgres) queryMemberships(ctx context.Context, query string, args ...any) ([]*models.Membership, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*models.Membership, error) {
	var (
		m           models.Membership
		rawID       uuid.UUID
		groupID     uuid.UUID
		householdID uuid.UUID
		leftAt      sql.NullTime
	)
	err := row.Scan(&rawID, &groupID, &householdID, &m.InvitedByUser, &m.JoinedAt, &leftAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan membership: %w", err)
	}
	m.ID = id.MembershipID(rawID)
	m.GroupID = id.GroupID(groupID)
	m.HouseholdID = id.HouseholdID(householdID)
	if leftAt.Valid {
		t := leftAt.Time
		m.LeftAt = &t
	}
	return &m, nil
}
