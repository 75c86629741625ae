package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureCoreSchema creates the users, oauth_tokens and posts tables if they
// are missing. Safe to call at startup; conditional DDL only, no migration
// framework.
func EnsureCoreSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stmts := []struct {
		table string
		ddl   string
	}{
		{"users", `CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			user_name TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
		{"oauth_tokens", `CREATE TABLE IF NOT EXISTS oauth_tokens (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ,
			scopes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, platform)
		)`},
		{"posts", `CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT,
			filename TEXT NOT NULL,
			platform TEXT NOT NULL,
			status TEXT NOT NULL,
			response TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("creating table %s failed: %w", s.table, err)
		}
	}
	return nil
}
