package invitation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"beredskap/internal/group/models"
	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
	"beredskap/pkg/platform/tx"
)

// Postgres persists invitations in PostgreSQL. The pending predicate is
// computed in SQL against the caller's time, mirroring the derived state
// in models.
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

func (s *Postgres) Create(ctx context.Context, invitation *models.Invitation) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO group_invitations
		   (id, group_id, inviter_email, invited_household_id, expires_at, accepted_at, declined_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(invitation.ID), uuid.UUID(invitation.GroupID), invitation.InviterEmail,
		uuid.UUID(invitation.InvitedHouseholdID), invitation.ExpiresAt,
		invitation.AcceptedAt, invitation.DeclinedAt, invitation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, invitation *models.Invitation) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE group_invitations SET accepted_at = $2, declined_at = $3 WHERE id = $1`,
		uuid.UUID(invitation.ID), invitation.AcceptedAt, invitation.DeclinedAt,
	)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, invitationID id.InvitationID) (*models.Invitation, error) {
	return scanInvitation(s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, group_id, inviter_email, invited_household_id, expires_at, accepted_at, declined_at, created_at
		 FROM group_invitations WHERE id = $1`,
		uuid.UUID(invitationID),
	))
}

func (s *Postgres) PendingByGroupAndHousehold(ctx context.Context, groupID id.GroupID, householdID id.HouseholdID, now time.Time) (*models.Invitation, error) {
	return scanInvitation(s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, group_id, inviter_email, invited_household_id, expires_at, accepted_at, declined_at, created_at
		 FROM group_invitations
		 WHERE group_id = $1 AND invited_household_id = $2
		   AND accepted_at IS NULL AND declined_at IS NULL AND expires_at > $3`,
		uuid.UUID(groupID), uuid.UUID(householdID), now,
	))
}

func (s *Postgres) PendingByHousehold(ctx context.Context, householdID id.HouseholdID, now time.Time) ([]*models.Invitation, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT id, group_id, inviter_email, invited_household_id, expires_at, accepted_at, declined_at, created_at
		 FROM group_invitations
		 WHERE invited_household_id = $1
		   AND accepted_at IS NULL AND declined_at IS NULL AND expires_at > $2
		 ORDER BY created_at DESC`,
		uuid.UUID(householdID), now,
	)
	if err != nil {
		return nil, fmt.Errorf("select invitations: %w", err)
	}
	defer rows.Close()

	var pending []*models.Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, invitation)
	}
	return pending, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var (
		invitation  models.Invitation
		rawID       uuid.UUID
		groupID     uuid.UUID
		householdID uuid.UUID
		acceptedAt  sql.NullTime
		declinedAt  sql.NullTime
	)
	err := row.Scan(&rawID, &groupID, &invitation.InviterEmail, &householdID,
		&invitation.ExpiresAt, &acceptedAt, &declinedAt, &invitation.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invitation: %w", err)
	}
	invitation.ID = id.InvitationID(rawID)
	invitation.GroupID = id.GroupID(groupID)
	invitation.InvitedHouseholdID = id.HouseholdID(householdID)
	if acceptedAt.Valid {
		t := acceptedAt.Time
		invitation.AcceptedAt = &t
	}
	if declinedAt.Valid {
		t := declinedAt.Time
		invitation.DeclinedAt = &t
	}
	return &invitation, nil
}
