package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/repositories"
)

type LeadHandler struct {
	leads repositories.LeadRepository
	users repositories.UserRepository
	roles repositories.RoleRepository
	log   *logrus.Logger
}

func NewLeadHandler(leads repositories.LeadRepository, users repositories.UserRepository,
	roles repositories.RoleRepository, log *logrus.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, users: users, roles: roles, log: log}
}

// GET /leads/:id
func (h *LeadHandler) GetByID(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}
	lead, err := h.leads.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("[lead][getByID][err] id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get lead"})
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// GET /leads/:id/activities
func (h *LeadHandler) ListActivities(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}
	activities, err := h.leads.ListActivities(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("[lead][activities][err] id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get lead activities"})
		return
	}
	c.JSON(http.StatusOK, activities)
}
