package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/canvas"
)

const projectColumns = `id, user_id, name, description, type, status, network, project_data, is_archived, created_at, updated_at`

func scanProject(row pgx.Row) (*canvas.Project, error) {
	var p canvas.Project
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Type, &p.Status, &p.Network,
		&p.Data, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts a project. A missing ID gets a UUID; missing type,
// status and network default to custom, draft and devnet.
// Returns the stored project with timestamps filled in.
func (s *PGStore) CreateProject(ctx context.Context, p *canvas.Project) (*canvas.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Type == "" {
		p.Type = canvas.ProjectCustom
	}
	if p.Status == "" {
		p.Status = canvas.StatusDraft
	}
	if p.Network == "" {
		p.Network = canvas.Devnet
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO canvas_projects (id, user_id, name, description, type, status, network, project_data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+projectColumns,
		p.ID, p.UserID, p.Name, p.Description, p.Type, p.Status, p.Network, nullableData(p.Data),
	)
	created, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("canvas: insert project: %w", err)
	}
	return created, nil
}

// GetProject fetches a project by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetProject(ctx context.Context, id string) (*canvas.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM canvas_projects WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("canvas: get project: %w", err)
	}
	return p, nil
}

// ListProjects returns a user's non-archived projects, newest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListProjects(ctx context.Context, userID string) ([]canvas.Project, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+projectColumns+` FROM canvas_projects
		 WHERE user_id = $1 AND NOT is_archived
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("canvas: list projects: %w", err)
	}
	defer rows.Close()

	projects := []canvas.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("canvas: scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("canvas: rows projects: %w", err)
	}
	return projects, nil
}

// UpdateProject applies the non-nil fields of u.
// Returns ErrProjectNotFound if the project doesn't exist.
func (s *PGStore) UpdateProject(ctx context.Context, id string, u canvas.ProjectUpdate) (*canvas.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx,
		`UPDATE canvas_projects SET
		    name         = COALESCE($2, name),
		    description  = COALESCE($3, description),
		    type         = COALESCE($4, type),
		    status       = COALESCE($5, status),
		    network      = COALESCE($6, network),
		    project_data = COALESCE($7, project_data),
		    updated_at   = NOW()
		 WHERE id = $1
		 RETURNING `+projectColumns,
		id, u.Name, u.Description, u.Type, u.Status, u.Network, nullableData(u.Data),
	))
	if err != nil {
		if isNoRows(err) {
			return nil, canvas.ErrProjectNotFound
		}
		return nil, fmt.Errorf("canvas: update project: %w", err)
	}
	return p, nil
}

// DuplicateProject copies a project, including its project data, under a
// new ID owned by userID. The copy's name gets a " (Copy)" suffix.
// Returns ErrProjectNotFound if the source doesn't exist.
func (s *PGStore) DuplicateProject(ctx context.Context, id, userID string) (*canvas.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx,
		`INSERT INTO canvas_projects (id, user_id, name, description, type, network, project_data)
		 SELECT $2, $3, name || ' (Copy)', description, type, network, project_data
		 FROM canvas_projects WHERE id = $1
		 RETURNING `+projectColumns,
		id, uuid.NewString(), userID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, canvas.ErrProjectNotFound
		}
		return nil, fmt.Errorf("canvas: duplicate project: %w", err)
	}
	return p, nil
}

// ArchiveProject hides a project from ListProjects.
// Returns ErrProjectNotFound if the project doesn't exist.
func (s *PGStore) ArchiveProject(ctx context.Context, id string) (*canvas.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx,
		`UPDATE canvas_projects SET is_archived = TRUE, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+projectColumns, id))
	if err != nil {
		if isNoRows(err) {
			return nil, canvas.ErrProjectNotFound
		}
		return nil, fmt.Errorf("canvas: archive project: %w", err)
	}
	return p, nil
}

// DeleteProject deletes a project by its ID.
// No error if the project doesn't exist.
func (s *PGStore) DeleteProject(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM canvas_projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("canvas: delete project: %w", err)
	}
	return nil
}

// nullableData maps empty project data to SQL NULL.
func nullableData(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}
