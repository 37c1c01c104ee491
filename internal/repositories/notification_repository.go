package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"opsdesk/internal/models"
)

type NotificationRepository interface {
	Store(ctx context.Context, event *models.NotificationEvent) error
	ListForRecipient(ctx context.Context, userID string, limit int) ([]models.NotificationEvent, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Store(ctx context.Context, event *models.NotificationEvent) error {
	meta, err := json.Marshal(event.Meta)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO notification_events (
			id, type, title, body, actor_id, recipients, broadcast,
			entity_type, entity_id, meta, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.Type, event.Title, event.Body, event.ActorID,
		pq.Array(event.Recipients), event.Broadcast,
		event.EntityType, event.EntityID, meta, event.CreatedAt,
	)
	return err
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, userID string, limit int) ([]models.NotificationEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, type, title, body, actor_id, recipients, broadcast,
		       entity_type, entity_id, meta, created_at
		FROM notification_events
		WHERE broadcast OR $1 = ANY(recipients)
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationEvent
	for rows.Next() {
		var e models.NotificationEvent
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Title, &e.Body, &e.ActorID,
			pq.Array(&e.Recipients), &e.Broadcast,
			&e.EntityType, &e.EntityID, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
