package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/granrifa/rifa-go/internal/domain"
)

// SettingsStore implements repository.SettingsStore. Settings have no
// consistency coupling to ticket state, so it runs on plain pool queries.
type SettingsStore struct {
	pool *pgxpool.Pool
}

func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

func (s *SettingsStore) All(ctx context.Context) (domain.Settings, error) {
	const op = "postgres.SettingsStore.All"

	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	settings := domain.Settings{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, wrapDBErr(op, err)
		}
		settings[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return settings, nil
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	const op = "postgres.SettingsStore.Get"

	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM settings WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		return "", wrapDBErr(op, err)
	}

	return value, nil
}

func (s *SettingsStore) Set(ctx context.Context, values map[string]string) error {
	const op = "postgres.SettingsStore.Set"

	for key, value := range values {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO settings (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
			key, value,
		)
		if err != nil {
			return wrapDBErr(op, err)
		}
	}

	return nil
}
