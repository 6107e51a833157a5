package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS contract_config (
		singleton         BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
		owner             TEXT NOT NULL,
		name_char_limit   SMALLINT NOT NULL,
		post_char_limit   SMALLINT NOT NULL,
		agent_cut_percent SMALLINT NOT NULL CHECK (agent_cut_percent BETWEEN 0 AND 100),
		post_fee          NUMERIC(39,0) NOT NULL CHECK (post_fee >= 0),
		denom             TEXT NOT NULL,
		contract          TEXT NOT NULL DEFAULT '',
		version           TEXT NOT NULL DEFAULT ''
	)`,
	`ALTER TABLE contract_config ADD COLUMN IF NOT EXISTS contract TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE contract_config ADD COLUMN IF NOT EXISTS version TEXT NOT NULL DEFAULT ''`,
	`CREATE TABLE IF NOT EXISTS balances (
		address TEXT PRIMARY KEY,
		amount  NUMERIC(39,0) NOT NULL CHECK (amount >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS post_counter (
		singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
		value     BIGINT NOT NULL CHECK (value >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id             BIGINT PRIMARY KEY,
		poster_address TEXT NOT NULL,
		username       TEXT NOT NULL,
		content        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bank_outbox (
		id            UUID PRIMARY KEY,
		to_address    TEXT NOT NULL,
		amount        NUMERIC(39,0) NOT NULL CHECK (amount > 0),
		denom         TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		dispatched_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS bank_outbox_pending_idx
		ON bank_outbox (created_at) WHERE dispatched_at IS NULL`,
}

// Migrate creates the contract tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
