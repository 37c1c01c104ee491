package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"opsdesk/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, status, priority, assigned_to, assigned_users,
       project_id, lead_id, quotation_request_id, quotation_request_task_id, rfq_tag,
       reference_model_number, due_date,
       timer_started_at, total_tracked_seconds, last_timer_stopped_at, last_timer_duration_seconds,
       created_by, created_at, updated_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			id, title, status, priority, assigned_to, assigned_users,
			project_id, lead_id, quotation_request_id, quotation_request_task_id, rfq_tag,
			reference_model_number, due_date,
			timer_started_at, total_tracked_seconds, last_timer_stopped_at, last_timer_duration_seconds,
			created_by, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Status, task.Priority, task.AssignedTo, pq.Array(task.AssignedUsers),
		task.ProjectID, task.LeadID, task.QuotationRequestID, task.QuotationRequestTaskID, task.RFQTag,
		task.ReferenceModelNumber, task.DueDate,
		task.TimerStartedAt, task.TotalTrackedSeconds, task.LastTimerStoppedAt, task.LastTimerDurationSeconds,
		task.CreatedBy, task.CreatedAt, task.UpdatedAt,
	)
	return err
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.Title, &task.Status, &task.Priority, &task.AssignedTo, pq.Array(&task.AssignedUsers),
		&task.ProjectID, &task.LeadID, &task.QuotationRequestID, &task.QuotationRequestTaskID, &task.RFQTag,
		&task.ReferenceModelNumber, &task.DueDate,
		&task.TimerStartedAt, &task.TotalTrackedSeconds, &task.LastTimerStoppedAt, &task.LastTimerDurationSeconds,
		&task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.AssignedTo != nil {
		conditions = append(conditions,
			fmt.Sprintf("(assigned_to = $%d OR $%d = ANY(assigned_users))", argID, argID))
		args = append(args, *filter.AssignedTo)
		argID++
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argID))
		args = append(args, *filter.CreatedBy)
		argID++
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argID))
		args = append(args, *filter.ProjectID)
		argID++
	}
	if filter.LeadID != nil {
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", argID))
		args = append(args, *filter.LeadID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Status, &t.Priority, &t.AssignedTo, pq.Array(&t.AssignedUsers),
			&t.ProjectID, &t.LeadID, &t.QuotationRequestID, &t.QuotationRequestTaskID, &t.RFQTag,
			&t.ReferenceModelNumber, &t.DueDate,
			&t.TimerStartedAt, &t.TotalTrackedSeconds, &t.LastTimerStoppedAt, &t.LastTimerDurationSeconds,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title=$1, status=$2, priority=$3, assigned_to=$4, assigned_users=$5,
			reference_model_number=$6, due_date=$7,
			timer_started_at=$8, total_tracked_seconds=$9,
			last_timer_stopped_at=$10, last_timer_duration_seconds=$11,
			updated_at=$12
		WHERE id=$13`
	_, err := r.db.ExecContext(ctx, query,
		task.Title, task.Status, task.Priority, task.AssignedTo, pq.Array(task.AssignedUsers),
		task.ReferenceModelNumber, task.DueDate,
		task.TimerStartedAt, task.TotalTrackedSeconds,
		task.LastTimerStoppedAt, task.LastTimerDurationSeconds,
		task.UpdatedAt, task.ID,
	)
	return err
}
