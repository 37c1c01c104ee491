package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"opsdesk/internal/authz"
	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
)

// TimerService is the per-task time-tracking state machine: Idle
// (TimerStartedAt unset) ⇄ Running. TotalTrackedSeconds only grows, and only
// when a session is stopped.
type TimerService struct {
	tasks    repositories.TaskRepository
	notifier *Notifier
	activity *ActivityService
	log      *logrus.Logger
	now      func() time.Time
}

func NewTimerService(tasks repositories.TaskRepository, notifier *Notifier,
	activity *ActivityService, log *logrus.Logger) *TimerService {
	return &TimerService{tasks: tasks, notifier: notifier, activity: activity, log: log, now: time.Now}
}

// canTrack: admin, primary assignee or secondary assignee — and edit rights.
func canTrack(task *models.Task, actor *models.User, perms authz.PermissionSet) bool {
	if !perms.HasAny(authz.PermTaskEdit) {
		return false
	}
	if perms.Has(authz.PermAdmin) {
		return true
	}
	return isAssigned(task, actor.ID)
}

func isAssigned(task *models.Task, userID string) bool {
	if task.AssignedTo == userID {
		return true
	}
	for _, id := range task.AssignedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Start begins a timer session. Already-running tasks are a no-op. When the
// task was still todo it advances to in-progress with the same write.
func (s *TimerService) Start(ctx context.Context, taskID string, actor *models.User, perms authz.PermissionSet) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	if !canTrack(task, actor, perms) {
		return nil, ErrForbidden
	}
	if task.TimerStartedAt != nil {
		// уже идёт — ничего не делаем
		return task, nil
	}

	now := s.now()
	task.TimerStartedAt = &now
	if task.Status == models.StatusTodo {
		task.Status = models.StatusInProgress
	}
	task.UpdatedAt = now

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.log.Infof("[timer][start][ok] task=%s actor=%s", task.ID, actor.ID)

	s.notifier.Emit(ctx, &models.NotificationEvent{
		Type:       models.NotifyTimerStarted,
		Title:      "Timer started",
		Body:       fmt.Sprintf("%s started the timer on task %q.", actor.FullName, task.Title),
		ActorID:    actor.ID,
		Recipients: Recipients(task.AssignedTo, task.AssignedUsers, actor.ID),
		EntityType: "task",
		EntityID:   task.ID,
	})

	note := fmt.Sprintf("Timer started on task %q.", task.Title)
	s.activity.AppendProjectActivity(ctx, task.ProjectID, "time_tracking", note, actor.ID)
	s.activity.AppendLeadActivity(ctx, task.LeadID, "time_tracking", note, actor.ID)

	return task, nil
}

// Stop ends the running session, folding its duration into
// TotalTrackedSeconds. Idle tasks are a no-op.
func (s *TimerService) Stop(ctx context.Context, taskID string, actor *models.User, perms authz.PermissionSet) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	if !canTrack(task, actor, perms) {
		return nil, ErrForbidden
	}
	if task.TimerStartedAt == nil {
		return task, nil
	}

	now := s.now()
	duration := int64(now.Sub(*task.TimerStartedAt) / time.Second)
	if duration < 0 {
		return nil, validationErr("Timer start is in the future; cannot stop.")
	}

	task.TotalTrackedSeconds += duration
	task.TimerStartedAt = nil
	task.LastTimerStoppedAt = &now
	task.LastTimerDurationSeconds = duration
	task.UpdatedAt = now

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.log.Infof("[timer][stop][ok] task=%s actor=%s session=%ds total=%ds",
		task.ID, actor.ID, duration, task.TotalTrackedSeconds)

	s.notifier.Emit(ctx, &models.NotificationEvent{
		Type:       models.NotifyTimerStopped,
		Title:      "Timer stopped",
		Body: fmt.Sprintf("%s stopped the timer on task %q after %s.",
			actor.FullName, task.Title, FormatDuration(duration)),
		ActorID:    actor.ID,
		Recipients: Recipients(task.AssignedTo, task.AssignedUsers, actor.ID),
		EntityType: "task",
		EntityID:   task.ID,
	})

	note := fmt.Sprintf("Timer stopped on task %q: session %s, total %s.",
		task.Title, FormatDuration(duration), FormatDuration(task.TotalTrackedSeconds))
	s.activity.AppendProjectActivity(ctx, task.ProjectID, "time_tracking", note, actor.ID)
	s.activity.AppendLeadActivity(ctx, task.LeadID, "time_tracking", note, actor.ID)

	return task, nil
}

// Elapsed is the live duration for display: the stored total plus the running
// session, if any. Read-time projection only — never persisted except by Stop.
func (s *TimerService) Elapsed(task *models.Task, now time.Time) int64 {
	total := task.TotalTrackedSeconds
	if task.TimerStartedAt != nil {
		running := int64(now.Sub(*task.TimerStartedAt) / time.Second)
		if running > 0 {
			total += running
		}
	}
	return total
}

// FormatDuration renders whole seconds as the largest non-zero unit pair:
// "2h 5m", "5m 12s" or "42s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
