package models

import "time"

// NotificationEvent is created once and never mutated; a separate fan-out
// reader (out of scope here) consumes the rows.
type NotificationEvent struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	ActorID    string            `json:"actor_id"`
	Recipients []string          `json:"recipients"`
	Broadcast  bool              `json:"broadcast"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Meta       map[string]string `json:"meta,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Common notification types emitted by the workflow layer.
const (
	NotifyTaskAssigned  = "task_assigned"
	NotifyStatusChanged = "task_status_changed"
	NotifyTimerStarted  = "timer_started"
	NotifyTimerStopped  = "timer_stopped"
	NotifyPORequested   = "po_request_created"
	NotifyPOApproved    = "po_request_approved"
	NotifyPORejected    = "po_request_rejected"
	NotifyQRApproved    = "quotation_request_approved"
	NotifyQRRejected    = "quotation_request_rejected"
)
