package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureCoreSchemaMSSQL mirrors EnsureCoreSchema for SQL Server, where the
// existence check goes through sys.tables instead of IF NOT EXISTS.
func EnsureCoreSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stmts := []struct {
		table string
		ddl   string
	}{
		{"users", `CREATE TABLE dbo.[users] (
			id INT IDENTITY(1,1) PRIMARY KEY,
			name NVARCHAR(255) NOT NULL DEFAULT '',
			user_name NVARCHAR(255) NOT NULL UNIQUE,
			password NVARCHAR(255) NOT NULL,
			created_at DATETIME2 NOT NULL DEFAULT SYSDATETIME(),
			updated_at DATETIME2 NOT NULL DEFAULT SYSDATETIME()
		)`},
		{"oauth_tokens", `CREATE TABLE dbo.[oauth_tokens] (
			id BIGINT IDENTITY(1,1) PRIMARY KEY,
			user_id NVARCHAR(64) NOT NULL,
			platform NVARCHAR(32) NOT NULL,
			access_token NVARCHAR(MAX) NOT NULL,
			refresh_token NVARCHAR(MAX) NOT NULL DEFAULT '',
			expires_at DATETIME2 NULL,
			scopes NVARCHAR(512) NOT NULL DEFAULT '',
			created_at DATETIME2 NOT NULL DEFAULT SYSDATETIME(),
			updated_at DATETIME2 NOT NULL DEFAULT SYSDATETIME(),
			CONSTRAINT uq_oauth_tokens UNIQUE (user_id, platform)
		)`},
		{"posts", `CREATE TABLE dbo.[posts] (
			id BIGINT IDENTITY(1,1) PRIMARY KEY,
			user_id NVARCHAR(64) NULL,
			filename NVARCHAR(512) NOT NULL,
			platform NVARCHAR(32) NOT NULL,
			status NVARCHAR(16) NOT NULL,
			response NVARCHAR(MAX) NOT NULL DEFAULT '',
			created_at DATETIME2 NOT NULL DEFAULT SYSDATETIME()
		)`},
	}

	for _, s := range stmts {
		exists, err := tableExistsMSSQL(ctx, db, s.table)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, s.ddl); err != nil {
				return fmt.Errorf("creating table %s failed: %w", s.table, err)
			}
		}
	}
	return nil
}

func tableExistsMSSQL(ctx context.Context, db *sql.DB, table string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM sys.tables WHERE name=@p1 AND schema_id=SCHEMA_ID('dbo')`, table)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
