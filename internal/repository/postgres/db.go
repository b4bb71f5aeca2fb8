package postgres

import (
	"context"
	"database/sql"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	password TEXT NOT NULL,
	role     TEXT NOT NULL,
	phone    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS trips (
	id                  TEXT PRIMARY KEY,
	host_username       TEXT NOT NULL,
	origin              TEXT NOT NULL,
	destination         TEXT NOT NULL,
	departure_at        TIMESTAMPTZ NOT NULL,
	arrival_at          TIMESTAMPTZ NOT NULL,
	max_passengers      INTEGER NOT NULL CHECK (max_passengers >= 1),
	price_per_passenger DOUBLE PRECISION NOT NULL CHECK (price_per_passenger >= 0),
	is_started          BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS trip_passengers (
	trip_id  TEXT NOT NULL REFERENCES trips (id) ON DELETE CASCADE,
	username TEXT NOT NULL,
	seats    INTEGER NOT NULL CHECK (seats >= 1),
	PRIMARY KEY (trip_id, username)
);
`

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, q Querier) error {
	_, err := q.ExecContext(ctx, schema)
	return err
}

// rewrite runs fn inside a transaction that commits only if fn succeeds.
func rewrite(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
