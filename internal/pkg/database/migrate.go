package database

import (
	"context"
	"fmt"
)

// Migrate creates the schema. Every statement is idempotent so it runs on each start.
func Migrate(ctx context.Context, db *DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           UUID PRIMARY KEY,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL,
		role         TEXT NOT NULL DEFAULT 'user'
		             CHECK (role IN ('user', 'admin')),
		balance      NUMERIC(8, 2) NOT NULL DEFAULT 0,
		onboarded_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email))`,

	`CREATE TABLE IF NOT EXISTS leave_requests (
		id                UUID PRIMARY KEY,
		user_id           UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		from_date         DATE NOT NULL,
		to_date           DATE NOT NULL,
		time_slot         TEXT NOT NULL DEFAULT 'full-day'
		                  CHECK (time_slot IN ('full-day', 'morning', 'afternoon')),
		type              TEXT NOT NULL
		                  CHECK (type IN ('sickness', 'kids', 'vacation', 'school-review')),
		status            TEXT NOT NULL DEFAULT 'pending'
		                  CHECK (status IN ('pending', 'pending-manager', 'approved', 'refused', 'cancelled')),
		status_reason     TEXT,
		projects          TEXT[] NOT NULL DEFAULT '{}',
		project_deadlines TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (from_date <= to_date)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_leave_requests_from_date ON leave_requests (from_date, id)`,
	`CREATE INDEX IF NOT EXISTS idx_leave_requests_user ON leave_requests (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_leave_requests_status ON leave_requests (status)`,

	`CREATE TABLE IF NOT EXISTS leave_request_reviewers (
		leave_request_id UUID NOT NULL REFERENCES leave_requests(id) ON DELETE CASCADE,
		user_id          UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		position         INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (leave_request_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_leave_request_reviewers_user ON leave_request_reviewers (user_id)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id           UUID PRIMARY KEY,
		recipient_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sender_id    UUID REFERENCES users(id) ON DELETE SET NULL,
		type         TEXT NOT NULL,
		title        TEXT NOT NULL,
		message      TEXT NOT NULL,
		data         JSONB,
		is_read      BOOLEAN NOT NULL DEFAULT FALSE,
		read_at      TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at DESC)`,
}
