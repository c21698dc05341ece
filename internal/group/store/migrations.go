// Package store holds the PostgreSQL schema for the group engine and the
// per-entity store subpackages.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the engine's tables. Runs on startup; every statement is
// idempotent. The two partial unique indexes are load-bearing: they close
// the race windows behind the at-most-one-active-membership and the
// one-contribution-per-batch invariants.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id              UUID PRIMARY KEY,
    name            TEXT NOT NULL,
    status          TEXT NOT NULL,
    created_by_user TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS group_memberships (
    id              UUID PRIMARY KEY,
    group_id        UUID NOT NULL REFERENCES groups(id),
    household_id    UUID NOT NULL,
    invited_by_user TEXT NOT NULL,
    joined_at       TIMESTAMPTZ NOT NULL,
    left_at         TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_group_memberships_active
    ON group_memberships (group_id, household_id)
    WHERE left_at IS NULL;

CREATE INDEX IF NOT EXISTS idx_group_memberships_household
    ON group_memberships (household_id);

CREATE TABLE IF NOT EXISTS group_invitations (
    id                   UUID PRIMARY KEY,
    group_id             UUID NOT NULL REFERENCES groups(id),
    inviter_email        TEXT NOT NULL,
    invited_household_id UUID NOT NULL,
    expires_at           TIMESTAMPTZ NOT NULL,
    accepted_at          TIMESTAMPTZ,
    declined_at          TIMESTAMPTZ,
    created_at           TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_group_invitations_household
    ON group_invitations (invited_household_id);

CREATE TABLE IF NOT EXISTS group_contributions (
    id               UUID PRIMARY KEY,
    group_id         UUID NOT NULL REFERENCES groups(id),
    household_id     UUID NOT NULL,
    product_batch_id UUID,
    custom_name      TEXT,
    expiration_at    TIMESTAMPTZ,
    contributed_at   TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_group_contributions_batch
    ON group_contributions (product_batch_id)
    WHERE product_batch_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_group_contributions_group
    ON group_contributions (group_id);
`

// Migrate applies the engine schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply group schema: %w", err)
	}
	return nil
}
