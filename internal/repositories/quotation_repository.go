package repositories

import (
	"context"
	"database/sql"

	"opsdesk/internal/models"
)

type QuotationRequestRepository interface {
	FindByID(ctx context.Context, id string) (*models.QuotationRequest, error)
	FindTask(ctx context.Context, quotationRequestID, taskID string) (*models.QuotationRequestTask, error)
	UpdateTaskStatus(ctx context.Context, taskID string, to models.QuotationRequestTaskStatus) error
	UpdateApproval(ctx context.Context, qr *models.QuotationRequest) error
}

type quotationRequestRepository struct {
	db *sql.DB
}

func NewQuotationRequestRepository(db *sql.DB) QuotationRequestRepository {
	return &quotationRequestRepository{db: db}
}

func (r *quotationRequestRepository) FindByID(ctx context.Context, id string) (*models.QuotationRequest, error) {
	const query = `
		SELECT id, title, lead_id, project_id, status,
		       approved_by, approved_by_name, approved_at,
		       rejected_by, rejected_by_name, rejected_at, rejection_reason,
		       created_by, created_at, updated_at
		FROM quotation_requests WHERE id = $1`
	qr := &models.QuotationRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&qr.ID, &qr.Title, &qr.LeadID, &qr.ProjectID, &qr.Status,
		&qr.Approval.ApprovedBy, &qr.Approval.ApprovedByName, &qr.Approval.ApprovedAt,
		&qr.Approval.RejectedBy, &qr.Approval.RejectedByName, &qr.Approval.RejectedAt, &qr.Approval.RejectionReason,
		&qr.CreatedBy, &qr.CreatedAt, &qr.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	const taskQuery = `
		SELECT id, quotation_request_id, tag, status,
		       assigned_to, assigned_name, task_id
		FROM quotation_request_tasks WHERE quotation_request_id = $1 ORDER BY tag`
	rows, err := r.db.QueryContext(ctx, taskQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t models.QuotationRequestTask
		if err := rows.Scan(&t.ID, &t.QuotationRequestID, &t.Tag, &t.Status,
			&t.AssignedTo, &t.AssignedName, &t.TaskID); err != nil {
			return nil, err
		}
		qr.Tasks = append(qr.Tasks, t)
	}
	return qr, rows.Err()
}

func (r *quotationRequestRepository) FindTask(ctx context.Context, quotationRequestID, taskID string) (*models.QuotationRequestTask, error) {
	const query = `
		SELECT id, quotation_request_id, tag, status, assigned_to, assigned_name, task_id
		FROM quotation_request_tasks
		WHERE quotation_request_id = $1 AND id = $2`
	t := &models.QuotationRequestTask{}
	err := r.db.QueryRowContext(ctx, query, quotationRequestID, taskID).Scan(
		&t.ID, &t.QuotationRequestID, &t.Tag, &t.Status, &t.AssignedTo, &t.AssignedName, &t.TaskID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *quotationRequestRepository) UpdateTaskStatus(ctx context.Context, taskID string, to models.QuotationRequestTaskStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE quotation_request_tasks SET status=$1 WHERE id=$2`, to, taskID)
	return err
}

func (r *quotationRequestRepository) UpdateApproval(ctx context.Context, qr *models.QuotationRequest) error {
	const query = `
		UPDATE quotation_requests SET
			status=$1,
			approved_by=$2, approved_by_name=$3, approved_at=$4,
			rejected_by=$5, rejected_by_name=$6, rejected_at=$7, rejection_reason=$8,
			updated_at=$9
		WHERE id=$10`
	_, err := r.db.ExecContext(ctx, query,
		qr.Status,
		qr.Approval.ApprovedBy, qr.Approval.ApprovedByName, qr.Approval.ApprovedAt,
		qr.Approval.RejectedBy, qr.Approval.RejectedByName, qr.Approval.RejectedAt, qr.Approval.RejectionReason,
		qr.UpdatedAt, qr.ID,
	)
	return err
}
