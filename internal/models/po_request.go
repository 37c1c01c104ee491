package models

import "time"

// ApprovalStatus covers every approvable entity (PO requests, quotation
// requests). pending_approval is the only state approve/reject accept.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending_approval"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Approval holds the audit fields of an approve/reject decision. ApprovedBy
// and RejectedBy are mutually exclusive: a fresh approve clears the reject
// side. A reject leaves prior approve fields untouched — behaviour kept as
// the system always worked, see DESIGN.md.
type Approval struct {
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedByName  string     `json:"approved_by_name,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectedByName  string     `json:"rejected_by_name,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// POLineItem is one line of a purchase-order request. TaxAmount and LineTotal
// are derived server-side and rounded to cents.
type POLineItem struct {
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
	TaxAmount   float64 `json:"tax_amount"`
	LineTotal   float64 `json:"line_total"`
	Notes       string  `json:"notes,omitempty"`
}

type PurchaseOrderRequest struct {
	ID            string         `json:"id"`
	RequestNumber string         `json:"request_number"`
	ProjectID     string         `json:"project_id"`
	VendorID      string         `json:"vendor_id,omitempty"`
	VendorName    string         `json:"vendor_name"`
	Currency      string         `json:"currency"`
	LineItems     []POLineItem   `json:"line_items"`
	Notes         string         `json:"notes,omitempty"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	Subtotal      float64        `json:"subtotal"`
	TaxAmount     float64        `json:"tax_amount"`
	Total         float64        `json:"total"`
	Status        ApprovalStatus `json:"status"`
	Approval      Approval       `json:"approval"`

	RequestedBy     string    `json:"requested_by"`
	RequestedByName string    `json:"requested_by_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
