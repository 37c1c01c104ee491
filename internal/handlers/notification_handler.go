package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/repositories"
)

type NotificationHandler struct {
	events repositories.NotificationRepository
	users  repositories.UserRepository
	roles  repositories.RoleRepository
	log    *logrus.Logger
}

func NewNotificationHandler(events repositories.NotificationRepository, users repositories.UserRepository,
	roles repositories.RoleRepository, log *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{events: events, users: users, roles: roles, log: log}
}

// GET /notifications — the acting user's feed, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}
	limit := 50
	if v, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := h.events.ListForRecipient(c.Request.Context(), auth.actor.ID, limit)
	if err != nil {
		h.log.Errorf("[notifications][list][err] user=%s: %v", auth.actor.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve notifications"})
		return
	}
	c.JSON(http.StatusOK, events)
}
