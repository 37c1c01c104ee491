package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
)

// Recipients builds the deduplicated notification recipient list from a
// primary assignee and a secondary list. Blank ids are dropped and the acting
// user is always excluded. The result is sorted so two builds over the same
// ids compare equal regardless of input order.
func Recipients(primary string, secondaries []string, actor string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(id string) {
		if id == "" || id == actor {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(primary)
	for _, id := range secondaries {
		add(id)
	}
	sort.Strings(out)
	return out
}

// SameRecipients reports set equality of two already-built recipient lists.
func SameRecipients(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// Notifier persists notification events, fire-and-forget. The primary effect
// of the calling operation must already be durable before Emit is invoked —
// a lost notification never rolls back user-visible state.
type Notifier struct {
	events repositories.NotificationRepository
	users  repositories.UserRepository
	tg     *TelegramService // optional push channel
	log    *logrus.Logger
}

func NewNotifier(events repositories.NotificationRepository, users repositories.UserRepository,
	tg *TelegramService, log *logrus.Logger) *Notifier {
	return &Notifier{events: events, users: users, tg: tg, log: log}
}

// Emit stores the event. Empty non-broadcast recipient lists are skipped, not
// failed; persistence errors are logged and swallowed.
func (n *Notifier) Emit(ctx context.Context, event *models.NotificationEvent) {
	if n == nil || event == nil {
		return
	}
	if len(event.Recipients) == 0 && !event.Broadcast {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := n.events.Store(ctx, event); err != nil {
		n.log.Warnf("[notify][emit][err] type=%s entity=%s#%s: %v",
			event.Type, event.EntityType, event.EntityID, err)
		return
	}
	n.pushTelegram(ctx, event)
}

// pushTelegram forwards the event to recipients with a linked chat. Purely
// best-effort on top of an already best-effort channel.
func (n *Notifier) pushTelegram(ctx context.Context, event *models.NotificationEvent) {
	if n.tg == nil || n.users == nil {
		return
	}
	for _, id := range event.Recipients {
		u, err := n.users.FindByID(ctx, id)
		if err != nil || u == nil || u.TelegramChatID == 0 {
			continue
		}
		text := event.Title
		if event.Body != "" {
			text += "\n" + event.Body
		}
		if err := n.tg.SendMessage(u.TelegramChatID, text); err != nil {
			n.log.Warnf("[notify][tg][err] recipient=%s: %v", id, err)
		}
	}
}
