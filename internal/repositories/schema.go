package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS verification_attempts (
		id                 TEXT PRIMARY KEY,
		provider           TEXT NOT NULL,
		identifier         TEXT NOT NULL,
		code_hash          TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL,
		expires_at         TIMESTAMPTZ NOT NULL,
		attempts_remaining INTEGER NOT NULL,
		status             TEXT NOT NULL,
		verified_at        TIMESTAMPTZ,
		version            INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS verification_attempts_pair_idx
		ON verification_attempts (provider, identifier, created_at)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id              BIGSERIAL PRIMARY KEY,
		provider        TEXT NOT NULL,
		provider_type   TEXT NOT NULL,
		external_id     TEXT NOT NULL,
		subscription_id TEXT NOT NULL DEFAULT '',
		amount          BIGINT NOT NULL DEFAULT 0,
		currency        TEXT NOT NULL DEFAULT '',
		applied_state   TEXT NOT NULL,
		raw_payload     BYTEA,
		processed_at    TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL,
		version         INTEGER NOT NULL DEFAULT 0,
		UNIQUE (provider, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id           TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		activated_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS payment_action_failures (
		id          TEXT PRIMARY KEY,
		provider    TEXT NOT NULL,
		external_id TEXT NOT NULL,
		state       TEXT NOT NULL,
		action      TEXT NOT NULL,
		error       TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema создаёт недостающие таблицы сервиса.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
