// internal/services/task_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/authz"
	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
)

// TaskUpdate carries the fields a save may change. Nil means "leave as is".
type TaskUpdate struct {
	Title                *string
	Status               *models.TaskStatus
	Priority             *models.TaskPriority
	AssignedTo           *string
	AssignedUsers        *[]string
	DueDate              **time.Time
	ReferenceModelNumber *string
}

// TaskService applies task changes and propagates their consequences:
// assignment/status notifications, the consolidated project note and the
// one-way done-cascade into the linked quotation-request task. The task write
// itself is authoritative; every propagation step is independently
// best-effort and never undoes it.
type TaskService struct {
	tasks      repositories.TaskRepository
	quotations repositories.QuotationRequestRepository
	notifier   *Notifier
	activity   *ActivityService
	log        *logrus.Logger
	now        func() time.Time
}

func NewTaskService(tasks repositories.TaskRepository, quotations repositories.QuotationRequestRepository,
	notifier *Notifier, activity *ActivityService, log *logrus.Logger) *TaskService {
	return &TaskService{
		tasks:      tasks,
		quotations: quotations,
		notifier:   notifier,
		activity:   activity,
		log:        log,
		now:        time.Now,
	}
}

func isAllowedTaskStatus(s models.TaskStatus) bool {
	switch s {
	case models.StatusTodo, models.StatusInProgress, models.StatusReview, models.StatusDone:
		return true
	}
	return false
}

// statusLabel renders a status for human-facing text: separators become
// spaces ("in-progress" → "in progress").
func statusLabel(s models.TaskStatus) string {
	return strings.NewReplacer("-", " ", "_", " ").Replace(string(s))
}

func (s *TaskService) Create(ctx context.Context, task *models.Task, actor *models.User, perms authz.PermissionSet) (*models.Task, error) {
	if !perms.HasAny(authz.PermTaskCreate, authz.PermTaskEdit) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(task.Title) == "" {
		return nil, validationErr("Title is required.")
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if !isAllowedTaskStatus(task.Status) {
		return nil, validationErr("Unknown task status.")
	}
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedBy = actor.ID
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.tasks.Store(ctx, task); err != nil {
		return nil, err
	}
	s.log.Infof("[task][create][ok] id=%s assigned_to=%s", task.ID, task.AssignedTo)

	s.notifier.Emit(ctx, &models.NotificationEvent{
		Type:       models.NotifyTaskAssigned,
		Title:      "New task assigned",
		Body:       fmt.Sprintf("%s assigned you the task %q.", actor.FullName, task.Title),
		ActorID:    actor.ID,
		Recipients: Recipients(task.AssignedTo, task.AssignedUsers, actor.ID),
		EntityType: "task",
		EntityID:   task.ID,
	})
	s.activity.AppendProjectActivity(ctx, task.ProjectID, "task",
		fmt.Sprintf("Task created: %q.", task.Title), actor.ID)

	return task, nil
}

func (s *TaskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *TaskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.tasks.FindAll(ctx, filter)
}

// Update is the status-coordinator entry point. Non-admin actors may only
// touch tasks they are assigned to and may never reassign.
func (s *TaskService) Update(ctx context.Context, id string, upd TaskUpdate, actor *models.User, perms authz.PermissionSet) (*models.Task, error) {
	current, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}

	if !perms.HasAny(authz.PermTaskEdit) {
		return nil, ErrForbidden
	}
	isAdmin := perms.Has(authz.PermAdmin)
	if !isAdmin && !isAssigned(current, actor.ID) {
		return nil, ErrForbidden
	}

	reassigned := (upd.AssignedTo != nil && *upd.AssignedTo != current.AssignedTo) ||
		(upd.AssignedUsers != nil && !SameRecipients(
			Recipients("", *upd.AssignedUsers, ""), Recipients("", current.AssignedUsers, "")))
	if reassigned && !isAdmin {
		return nil, ErrForbidden
	}

	updated := *current
	var changed []string

	if upd.Title != nil && *upd.Title != current.Title {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, validationErr("Title is required.")
		}
		updated.Title = *upd.Title
		changed = append(changed, fmt.Sprintf("title → %q", updated.Title))
	}
	if upd.Status != nil && *upd.Status != current.Status {
		if !isAllowedTaskStatus(*upd.Status) {
			return nil, validationErr("Unknown task status.")
		}
		updated.Status = *upd.Status
		changed = append(changed, fmt.Sprintf("status → %s", statusLabel(updated.Status)))
	}
	if upd.Priority != nil && *upd.Priority != current.Priority {
		updated.Priority = *upd.Priority
		changed = append(changed, fmt.Sprintf("priority → %s", updated.Priority))
	}
	if upd.AssignedTo != nil {
		updated.AssignedTo = *upd.AssignedTo
	}
	if upd.AssignedUsers != nil {
		updated.AssignedUsers = *upd.AssignedUsers
	}
	if upd.DueDate != nil {
		updated.DueDate = *upd.DueDate
		if updated.DueDate != nil {
			changed = append(changed, fmt.Sprintf("due date → %s", updated.DueDate.Format("2006-01-02")))
		} else if current.DueDate != nil {
			changed = append(changed, "due date cleared")
		}
	}
	if upd.ReferenceModelNumber != nil && *upd.ReferenceModelNumber != current.ReferenceModelNumber {
		updated.ReferenceModelNumber = *upd.ReferenceModelNumber
		changed = append(changed, fmt.Sprintf("reference model number → %s", updated.ReferenceModelNumber))
	}
	updated.UpdatedAt = s.now()

	// Основная запись — единственная обязательная.
	if err := s.tasks.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.log.Infof("[task][update][ok] id=%s changed=%d", updated.ID, len(changed))

	oldRecipients := Recipients(current.AssignedTo, current.AssignedUsers, actor.ID)
	newRecipients := Recipients(updated.AssignedTo, updated.AssignedUsers, actor.ID)

	if !SameRecipients(oldRecipients, newRecipients) {
		s.notifier.Emit(ctx, &models.NotificationEvent{
			Type:       models.NotifyTaskAssigned,
			Title:      "Task assigned",
			Body:       fmt.Sprintf("%s assigned you the task %q.", actor.FullName, updated.Title),
			ActorID:    actor.ID,
			Recipients: newRecipients,
			EntityType: "task",
			EntityID:   updated.ID,
		})
	}

	statusChanged := updated.Status != current.Status
	if statusChanged {
		union := []string{current.CreatedBy, current.AssignedTo, updated.AssignedTo}
		union = append(union, current.AssignedUsers...)
		union = append(union, updated.AssignedUsers...)
		s.notifier.Emit(ctx, &models.NotificationEvent{
			Type:    models.NotifyStatusChanged,
			Title:   "Task status changed",
			Body: fmt.Sprintf("%s moved task %q from %s to %s.",
				actor.FullName, updated.Title, statusLabel(current.Status), statusLabel(updated.Status)),
			ActorID:    actor.ID,
			Recipients: Recipients("", union, actor.ID),
			EntityType: "task",
			EntityID:   updated.ID,
			Meta:       map[string]string{"from": string(current.Status), "to": string(updated.Status)},
		})
	}

	if updated.ProjectID != "" && len(changed) > 0 {
		note := fmt.Sprintf("Updated task %q: %s.", updated.Title, strings.Join(changed, ", "))
		if statusChanged && updated.Status == models.StatusDone {
			note += " Task completed."
		}
		s.activity.AppendProjectActivity(ctx, updated.ProjectID, "task", note, actor.ID)
	}

	// Каскад выполняется ровно один раз на переход в done.
	if statusChanged && updated.Status == models.StatusDone {
		s.cascadeTaskDone(ctx, &updated, actor)
	}

	return &updated, nil
}

// cascadeTaskDone is the one-way synchronization into the quotation request:
// the mirrored RFQ task is marked done and the lead gets an activity note.
// Requires the full linkage (quotation request + task + lead + tag); anything
// missing or dangling skips silently. Each step is attempted even if the
// previous one failed.
func (s *TaskService) cascadeTaskDone(ctx context.Context, task *models.Task, actor *models.User) {
	if task.QuotationRequestID == "" || task.QuotationRequestTaskID == "" ||
		task.LeadID == "" || task.RFQTag == "" {
		return
	}

	qrTask, err := s.quotations.FindTask(ctx, task.QuotationRequestID, task.QuotationRequestTaskID)
	switch {
	case err != nil:
		s.log.Warnf("[task][cascade][err] find rfq task qr=%s task=%s: %v",
			task.QuotationRequestID, task.QuotationRequestTaskID, err)
	case qrTask == nil:
		s.log.Debugf("[task][cascade][skip] dangling rfq task qr=%s task=%s",
			task.QuotationRequestID, task.QuotationRequestTaskID)
	default:
		if err := s.quotations.UpdateTaskStatus(ctx, qrTask.ID, models.QRTaskDone); err != nil {
			s.log.Warnf("[task][cascade][err] mark rfq task done id=%s: %v", qrTask.ID, err)
		}
	}

	s.activity.AppendLeadActivity(ctx, task.LeadID, "rfq",
		fmt.Sprintf("RFQ task completed: %s.", task.RFQTag), actor.ID)
}
