package group

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

// Postgres persists groups in PostgreSQL. Queries join an enclosing
// transaction when the context carries one.
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

func (s *Postgres) Create(ctx context.Context, group *models.Group) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO groups (id, name, status, created_by_user, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(group.ID), group.Name, string(group.Status), group.CreatedByUser, group.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	return scanGroup(s.exec(ctx).QueryRowContext(ctx,
		`SELECT id, name, status, created_by_user, created_at FROM groups WHERE id = $1`,
		uuid.UUID(groupID),
	))
}

func (s *Postgres) FindByIDs(ctx context.Context, groupIDs []id.GroupID) ([]*models.Group, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	raw := make([]uuid.UUID, len(groupIDs))
	for i, groupID := range groupIDs {
		raw[i] = uuid.UUID(groupID)
	}
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT id, name, status, created_by_user, created_at
		 FROM groups WHERE id = ANY($1)`,
		pq.Array(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("select groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, group *models.Group) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE groups SET name = $2, status = $3 WHERE id = $1`,
		uuid.UUID(group.ID), group.Name, string(group.Status),
	)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	var (
		group  models.Group
		rawID  uuid.UUID
		status string
	)
	err := row.Scan(&rawID, &group.Name, &status, &group.CreatedByUser, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan group: %w", err)
	}
	group.ID = id.GroupID(rawID)
	group.Status = models.GroupStatus(status)
	return &group, nil
}
