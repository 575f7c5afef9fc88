package test_utils

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InsertUser stores a user row directly, for repository tests of tables referencing users.
func InsertUser(ctx context.Context, db *pgxpool.Pool, uid string) (int, error) {
	var id int
	err := db.QueryRow(ctx,
		`INSERT INTO users (uid, username, display_name, timezone) VALUES ($1, $1, $1, 'Europe/Warsaw') RETURNING id`,
		uid,
	).Scan(&id)
	return id, err
}
