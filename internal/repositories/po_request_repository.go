package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"opsdesk/internal/models"
)

type PORequestRepository interface {
	// CreateBatch writes the PO request, one project activity note and one
	// notification event in a single transaction. This is the only atomic
	// multi-document write in the system; everything else is best-effort
	// sequences. event may be nil (no approvers found).
	CreateBatch(ctx context.Context, po *models.PurchaseOrderRequest,
		activity *models.ProjectActivity, event *models.NotificationEvent) error

	FindByID(ctx context.Context, id string) (*models.PurchaseOrderRequest, error)
	List(ctx context.Context) ([]models.PurchaseOrderRequest, error)
	UpdateApproval(ctx context.Context, po *models.PurchaseOrderRequest) error
}

type poRequestRepository struct {
	db *sql.DB
}

func NewPORequestRepository(db *sql.DB) PORequestRepository {
	return &poRequestRepository{db: db}
}

const poColumns = `id, request_number, project_id, vendor_id, vendor_name, currency,
       line_items, notes, due_date, subtotal, tax_amount, total, status,
       approved_by, approved_by_name, approved_at,
       rejected_by, rejected_by_name, rejected_at, rejection_reason,
       requested_by, requested_by_name, created_at, updated_at`

func (r *poRequestRepository) CreateBatch(ctx context.Context, po *models.PurchaseOrderRequest,
	activity *models.ProjectActivity, event *models.NotificationEvent) error {

	items, err := json.Marshal(po.LineItems)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertPO = `
		INSERT INTO po_requests (
			id, request_number, project_id, vendor_id, vendor_name, currency,
			line_items, notes, due_date, subtotal, tax_amount, total, status,
			requested_by, requested_by_name, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	if _, err := tx.ExecContext(ctx, insertPO,
		po.ID, po.RequestNumber, po.ProjectID, po.VendorID, po.VendorName, po.Currency,
		items, po.Notes, po.DueDate, po.Subtotal, po.TaxAmount, po.Total, po.Status,
		po.RequestedBy, po.RequestedByName, po.CreatedAt, po.UpdatedAt,
	); err != nil {
		return err
	}

	const insertActivity = `
		INSERT INTO project_activities (project_id, type, note, date, created_by)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, insertActivity,
		activity.ProjectID, activity.Type, activity.Note, activity.Date, activity.CreatedBy,
	); err != nil {
		return err
	}

	if event != nil {
		meta, err := json.Marshal(event.Meta)
		if err != nil {
			return err
		}
		const insertEvent = `
			INSERT INTO notification_events (
				id, type, title, body, actor_id, recipients, broadcast,
				entity_type, entity_id, meta, created_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
		if _, err := tx.ExecContext(ctx, insertEvent,
			event.ID, event.Type, event.Title, event.Body, event.ActorID,
			pq.Array(event.Recipients), event.Broadcast,
			event.EntityType, event.EntityID, meta, event.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *poRequestRepository) FindByID(ctx context.Context, id string) (*models.PurchaseOrderRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+poColumns+` FROM po_requests WHERE id = $1`, id)
	po, err := scanPO(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (r *poRequestRepository) List(ctx context.Context) ([]models.PurchaseOrderRequest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+poColumns+` FROM po_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PurchaseOrderRequest
	for rows.Next() {
		po, err := scanPO(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *po)
	}
	return out, rows.Err()
}

func scanPO(scan func(...interface{}) error) (*models.PurchaseOrderRequest, error) {
	po := &models.PurchaseOrderRequest{}
	var items []byte
	err := scan(
		&po.ID, &po.RequestNumber, &po.ProjectID, &po.VendorID, &po.VendorName, &po.Currency,
		&items, &po.Notes, &po.DueDate, &po.Subtotal, &po.TaxAmount, &po.Total, &po.Status,
		&po.Approval.ApprovedBy, &po.Approval.ApprovedByName, &po.Approval.ApprovedAt,
		&po.Approval.RejectedBy, &po.Approval.RejectedByName, &po.Approval.RejectedAt, &po.Approval.RejectionReason,
		&po.RequestedBy, &po.RequestedByName, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &po.LineItems); err != nil {
			return nil, err
		}
	}
	return po, nil
}

func (r *poRequestRepository) UpdateApproval(ctx context.Context, po *models.PurchaseOrderRequest) error {
	const query = `
		UPDATE po_requests SET
			status=$1,
			approved_by=$2, approved_by_name=$3, approved_at=$4,
			rejected_by=$5, rejected_by_name=$6, rejected_at=$7, rejection_reason=$8,
			updated_at=$9
		WHERE id=$10`
	_, err := r.db.ExecContext(ctx, query,
		po.Status,
		po.Approval.ApprovedBy, po.Approval.ApprovedByName, po.Approval.ApprovedAt,
		po.Approval.RejectedBy, po.Approval.RejectedByName, po.Approval.RejectedAt, po.Approval.RejectionReason,
		po.UpdatedAt, po.ID,
	)
	return err
}
