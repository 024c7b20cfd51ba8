package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateSchema creates all tables needed by the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, conn pgx.Tx) error {
	if _, err := conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DropSchema removes all application tables. Used by the migrate CLI only.
func DropSchema(ctx context.Context, conn pgx.Tx) error {
	if _, err := conn.Exec(ctx, dropSchema); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

const Schema = `
-- Polls
CREATE TABLE IF NOT EXISTS polls (
    id BIGSERIAL PRIMARY KEY,
    public_id TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL DEFAULT 'standard' CHECK (kind IN ('standard', 'matrix')),
    allow_changes BOOLEAN NOT NULL DEFAULT FALSE,
    only_yes_no BOOLEAN NOT NULL DEFAULT FALSE,
    hide_participants BOOLEAN NOT NULL DEFAULT FALSE,
    allow_multi_bookings BOOLEAN NOT NULL DEFAULT FALSE,
    resource_label TEXT NOT NULL DEFAULT '',
    max_participants INTEGER,
    expires_at TIMESTAMPTZ,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_polls_public_id ON polls(public_id);
CREATE INDEX IF NOT EXISTS idx_polls_active ON polls(is_active, created_at DESC);

-- Candidate time slots
CREATE TABLE IF NOT EXISTS poll_options (
    id BIGSERIAL PRIMARY KEY,
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    slot TIMESTAMPTZ NOT NULL,
    max_participants INTEGER
);

CREATE INDEX IF NOT EXISTS idx_poll_options_poll_id ON poll_options(poll_id, slot);

-- Bookable resources (matrix polls only)
CREATE TABLE IF NOT EXISTS poll_resources (
    id BIGSERIAL PRIMARY KEY,
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_poll_resources_poll_id ON poll_resources(poll_id, sort_order);

-- Standard yes/maybe/no responses
CREATE TABLE IF NOT EXISTS responses (
    id BIGSERIAL PRIMARY KEY,
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    option_id BIGINT NOT NULL REFERENCES poll_options(id) ON DELETE CASCADE,
    participant_name TEXT NOT NULL,
    response_type TEXT NOT NULL DEFAULT 'no' CHECK (response_type IN ('yes', 'maybe', 'no')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (poll_id, option_id, participant_name)
);

CREATE INDEX IF NOT EXISTS idx_responses_participant ON responses(poll_id, participant_name);
CREATE INDEX IF NOT EXISTS idx_responses_option ON responses(option_id, response_type);

-- Resource x slot bookings (matrix polls only)
CREATE TABLE IF NOT EXISTS matrix_bookings (
    id BIGSERIAL PRIMARY KEY,
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    resource_id BIGINT NOT NULL REFERENCES poll_resources(id) ON DELETE CASCADE,
    option_id BIGINT NOT NULL REFERENCES poll_options(id) ON DELETE CASCADE,
    participant_name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (poll_id, resource_id, option_id, participant_name)
);

CREATE INDEX IF NOT EXISTS idx_matrix_bookings_participant ON matrix_bookings(poll_id, participant_name);
CREATE INDEX IF NOT EXISTS idx_matrix_bookings_cell ON matrix_bookings(resource_id, option_id);
`

const dropSchema = `
DROP TABLE IF EXISTS matrix_bookings;
DROP TABLE IF EXISTS responses;
DROP TABLE IF EXISTS poll_resources;
DROP TABLE IF EXISTS poll_options;
DROP TABLE IF EXISTS polls;
`
