package repositories

import (
	"context"
	"database/sql"

	"opsdesk/internal/models"
)

type LeadRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	AppendActivity(ctx context.Context, a *models.LeadActivity) error
	ListActivities(ctx context.Context, leadID string) ([]models.LeadActivity, error)
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	const query = `SELECT id, title, owner_id, status, created_at FROM leads WHERE id = $1`
	lead := &models.Lead{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lead.ID, &lead.Title, &lead.OwnerID, &lead.Status, &lead.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepository) AppendActivity(ctx context.Context, a *models.LeadActivity) error {
	const query = `
		INSERT INTO lead_activities (lead_id, type, note, date, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		a.LeadID, a.Type, a.Note, a.Date, a.CreatedBy).Scan(&a.ID)
}

func (r *leadRepository) ListActivities(ctx context.Context, leadID string) ([]models.LeadActivity, error) {
	const query = `
		SELECT id, lead_id, type, note, date, created_by
		FROM lead_activities WHERE lead_id = $1 ORDER BY date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LeadActivity
	for rows.Next() {
		var a models.LeadActivity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Type, &a.Note, &a.Date, &a.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
