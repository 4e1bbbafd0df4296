package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS canvas_projects (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    type         TEXT NOT NULL DEFAULT 'custom',
    status       TEXT NOT NULL DEFAULT 'draft',
    network      TEXT NOT NULL DEFAULT 'devnet',
    project_data JSONB,
    is_archived  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_canvas_projects_user ON canvas_projects(user_id, is_archived);
`

// CreateSchema creates the canvas_projects table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the canvas_projects table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS canvas_projects CASCADE;`)
	return err
}
