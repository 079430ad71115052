package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Schema statements executed at startup. Idempotent so restarts are safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		email text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		is_admin boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		id uuid PRIMARY KEY,
		code text NOT NULL UNIQUE,
		description text NOT NULL,
		service text NOT NULL,
		expires_at timestamptz NOT NULL,
		owner_id uuid REFERENCES users (id),
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS coupons_owner_id_idx ON coupons (owner_id)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *bun.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
