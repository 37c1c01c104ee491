package repositories

import (
	"context"
	"database/sql"

	"opsdesk/internal/models"
)

type ProjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	AppendActivity(ctx context.Context, a *models.ProjectActivity) error
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	const query = `SELECT id, name, owner_id, created_at FROM projects WHERE id = $1`
	p := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *projectRepository) AppendActivity(ctx context.Context, a *models.ProjectActivity) error {
	const query = `
		INSERT INTO project_activities (project_id, type, note, date, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		a.ProjectID, a.Type, a.Note, a.Date, a.CreatedBy).Scan(&a.ID)
}
