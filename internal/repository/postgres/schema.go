package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// schema creates every table the service needs. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS walkers (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		photo_url           TEXT NOT NULL DEFAULT '',
		rating              DOUBLE PRECISION NOT NULL DEFAULT 0,
		reviews             INTEGER NOT NULL DEFAULT 0,
		verification_status TEXT NOT NULL DEFAULT 'pending',
		balance             BIGINT NOT NULL DEFAULT 0,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id             TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL REFERENCES owners(id),
		walker_id      TEXT REFERENCES walkers(id),
		address        TEXT NOT NULL,
		lat            DOUBLE PRECISION NOT NULL,
		lng            DOUBLE PRECISION NOT NULL,
		scheduled_date TEXT NOT NULL,
		scheduled_time TEXT NOT NULL,
		duration       TEXT NOT NULL,
		total_price    BIGINT NOT NULL CHECK (total_price > 0),
		status         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		rating         SMALLINT CHECK (rating BETWEEN 1 AND 5),
		review_text    TEXT,
		CHECK (status <> 'pending' OR walker_id IS NULL),
		CHECK (rating IS NULL OR status = 'completed')
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_owner_created ON bookings (owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_walker_status ON bookings (walker_id, status)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id          TEXT PRIMARY KEY,
		booking_id  TEXT NOT NULL REFERENCES bookings(id),
		walker_id   TEXT NOT NULL REFERENCES walkers(id),
		lat         DOUBLE PRECISION NOT NULL,
		lng         DOUBLE PRECISION NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_booking_captured ON locations (booking_id, captured_at)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id           TEXT PRIMARY KEY,
		booking_id   TEXT NOT NULL UNIQUE REFERENCES bookings(id),
		owner_id     TEXT NOT NULL REFERENCES owners(id),
		walker_id    TEXT REFERENCES walkers(id),
		amount       BIGINT NOT NULL,
		gateway_fee  BIGINT NOT NULL DEFAULT 0,
		platform_fee BIGINT NOT NULL DEFAULT 0,
		net_earning  BIGINT NOT NULL DEFAULT 0,
		status       TEXT NOT NULL,
		payment_ref  TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL REFERENCES owners(id),
		walker_id  TEXT NOT NULL REFERENCES walkers(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_id, walker_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_walker ON conversations (walker_id, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		sender_id       TEXT NOT NULL,
		receiver_id     TEXT NOT NULL,
		message_text    TEXT NOT NULL CHECK (length(message_text) BETWEEN 1 AND 2000),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages (conversation_id, created_at)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}
