package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS buyers (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	phone          TEXT NOT NULL,
	payment_method TEXT NOT NULL,
	ticket_number  INTEGER NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tickets (
	number   INTEGER PRIMARY KEY,
	status   TEXT NOT NULL DEFAULT 'available',
	buyer_id BIGINT,
	sold_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// EnsureSchema creates the tables when missing and seeds initial data: the
// full 1..ticketCount range when the tickets table is empty, and any default
// settings keys not yet present. Safe to run on every startup.
func EnsureSchema(
	ctx context.Context,
	pool *pgxpool.Pool,
	ticketCount int,
	defaultSettings map[string]string,
) error {
	const op = "postgres.EnsureSchema"

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	var existing int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&existing); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if existing == 0 {
		_, err := pool.Exec(ctx,
			`INSERT INTO tickets (number, status)
			 SELECT n, 'available' FROM generate_series(1, $1) AS n
			 ON CONFLICT (number) DO NOTHING`,
			ticketCount,
		)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
	}

	for key, value := range defaultSettings {
		_, err := pool.Exec(ctx,
			`INSERT INTO settings (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO NOTHING`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
	}

	return nil
}
