package models

import "time"

// QuotationRequestTaskStatus — статусы RFQ-задач.
type QuotationRequestTaskStatus string

const (
	QRTaskPending  QuotationRequestTaskStatus = "pending"
	QRTaskAssigned QuotationRequestTaskStatus = "assigned"
	QRTaskDone     QuotationRequestTaskStatus = "done"
)

// QuotationRequestTask is a unit of work attached to a quotation request. It
// may be mirrored by a standalone Task (TaskID); the mirror link is weak and
// one-way: completing the Task completes this record, never the reverse.
type QuotationRequestTask struct {
	ID                 string                     `json:"id"`
	QuotationRequestID string                     `json:"quotation_request_id"`
	Tag                string                     `json:"tag"`
	Status             QuotationRequestTaskStatus `json:"status"`
	AssignedTo         string                     `json:"assigned_to,omitempty"`
	AssignedName       string                     `json:"assigned_name,omitempty"`
	TaskID             string                     `json:"task_id,omitempty"`
}

type QuotationRequest struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	LeadID    string    `json:"lead_id,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	Status    string    `json:"status"`
	Approval  Approval  `json:"approval"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks []QuotationRequestTask `json:"tasks,omitempty"`
}
