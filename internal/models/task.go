// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task represents the structure of a task in the system.
//
// A task may carry weak references to a project, a lead and one task of a
// quotation request (QuotationRequestID + QuotationRequestTaskID + RFQTag).
// They are plain ids, not foreign keys: a dangling reference skips the
// dependent side effect instead of failing the save.
type Task struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	AssignedTo    string       `json:"assigned_to"`
	AssignedUsers []string     `json:"assigned_users"`

	ProjectID              string `json:"project_id,omitempty"`
	LeadID                 string `json:"lead_id,omitempty"`
	QuotationRequestID     string `json:"quotation_request_id,omitempty"`
	QuotationRequestTaskID string `json:"quotation_request_task_id,omitempty"`
	RFQTag                 string `json:"rfq_tag,omitempty"`

	ReferenceModelNumber string     `json:"reference_model_number,omitempty"`
	DueDate              *time.Time `json:"due_date,omitempty"`

	// Таймер: не более одной активной сессии на задачу.
	TimerStartedAt           *time.Time `json:"timer_started_at,omitempty"`
	TotalTrackedSeconds      int64      `json:"total_tracked_seconds"`
	LastTimerStoppedAt       *time.Time `json:"last_timer_stopped_at,omitempty"`
	LastTimerDurationSeconds int64      `json:"last_timer_duration_seconds,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	AssignedTo *string
	CreatedBy  *string
	ProjectID  *string
	LeadID     *string
	Status     *TaskStatus
}
