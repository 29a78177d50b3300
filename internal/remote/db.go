package remote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres with pooled connections tuned for the API's
// request volume.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	user_id    text NOT NULL,
	uid        text NOT NULL,
	properties jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, uid)
);

CREATE TABLE IF NOT EXISTS board_columns (
	user_id       text NOT NULL,
	workspace_uid text NOT NULL,
	uid           text NOT NULL,
	properties    jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at    timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, workspace_uid, uid)
);

CREATE TABLE IF NOT EXISTS cards (
	user_id       text NOT NULL,
	workspace_uid text NOT NULL,
	column_uid    text NOT NULL,
	uid           text NOT NULL,
	properties    jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at    timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, workspace_uid, column_uid, uid)
);

CREATE TABLE IF NOT EXISTS changes (
	id            bigserial PRIMARY KEY,
	user_id       text NOT NULL,
	workspace_uid text NOT NULL,
	body          jsonb NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS changes_workspace_idx
	ON changes (user_id, workspace_uid, id);

CREATE TABLE IF NOT EXISTS current_workspace (
	user_id       text PRIMARY KEY,
	workspace_uid text NOT NULL
);
`

// ApplyMigrations creates the board tables. The schema is idempotent, so
// it runs unconditionally at startup.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
