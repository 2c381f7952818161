package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createShowsTable,
		createSeatsTable,
		createReservationsTable,
		createBookingsTable,
		createBookingLinesTable,
		createSeatsBookingFK,
		createReservationsExpiryIndex,
		createSeatsShowIndex,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createShowsTable = `
CREATE TABLE IF NOT EXISTS shows (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    starts_at TIMESTAMPTZ NOT NULL,
    total_seats INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createSeatsTable = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS seats (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    show_id BIGINT NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
    seat_no VARCHAR(10) NOT NULL,
    row_number INTEGER NOT NULL,
    col_number INTEGER NOT NULL,
    seat_type VARCHAR(20) NOT NULL DEFAULT 'STANDARD',
    price_cents BIGINT NOT NULL,
    occupied BOOLEAN NOT NULL DEFAULT FALSE,
    held_until TIMESTAMPTZ,
    booking_id BIGINT,
    version BIGINT NOT NULL DEFAULT 0,

    UNIQUE(show_id, row_number, col_number),
    CHECK (booking_id IS NULL OR (occupied AND held_until IS NULL))
);`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id UUID PRIMARY KEY,
    show_id BIGINT NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    seat_ids UUID[] NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id BIGSERIAL PRIMARY KEY,
    show_id BIGINT NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'CONFIRMED',
    total_amount_cents BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'COMPLETED', 'REFUNDED'))
);`

const createBookingLinesTable = `
CREATE TABLE IF NOT EXISTS booking_lines (
    id BIGSERIAL PRIMARY KEY,
    booking_id BIGINT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    seat_id UUID NOT NULL REFERENCES seats(id) ON DELETE CASCADE,
    customer_name VARCHAR(200) NOT NULL,
    customer_age INTEGER NOT NULL,
    gender VARCHAR(20),
    price_cents_at_booking BIGINT NOT NULL,

    UNIQUE(booking_id, seat_id),
    CHECK (customer_age BETWEEN 1 AND 120)
);`

const createSeatsBookingFK = `
DO $$ BEGIN
    ALTER TABLE seats
        ADD CONSTRAINT seats_booking_id_fkey
        FOREIGN KEY (booking_id) REFERENCES bookings(id);
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;`

const createReservationsExpiryIndex = `
CREATE INDEX IF NOT EXISTS reservations_expires_at_idx
ON reservations (expires_at);`

const createSeatsShowIndex = `
CREATE INDEX IF NOT EXISTS seats_show_id_idx
ON seats (show_id, row_number, col_number);`
