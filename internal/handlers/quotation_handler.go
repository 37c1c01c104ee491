package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/repositories"
	"opsdesk/internal/services"
)

type QuotationHandler struct {
	quotations repositories.QuotationRequestRepository
	approvals  *services.ApprovalService
	users      repositories.UserRepository
	roles      repositories.RoleRepository
	log        *logrus.Logger
}

func NewQuotationHandler(quotations repositories.QuotationRequestRepository, approvals *services.ApprovalService,
	users repositories.UserRepository, roles repositories.RoleRepository, log *logrus.Logger) *QuotationHandler {
	return &QuotationHandler{quotations: quotations, approvals: approvals, users: users, roles: roles, log: log}
}

// GET /quotation-requests/:id
func (h *QuotationHandler) GetByID(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}
	qr, err := h.quotations.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("[quotation][getByID][err] id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get quotation request"})
		return
	}
	if qr == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quotation request not found"})
		return
	}
	c.JSON(http.StatusOK, qr)
}

// POST /quotation-requests/:id/approve
func (h *QuotationHandler) Approve(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}
	qr, err := h.approvals.ApproveQuotationRequest(c.Request.Context(), c.Param("id"), auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to approve quotation request")
		return
	}
	c.JSON(http.StatusOK, qr)
}

// POST /quotation-requests/:id/reject { "reason": "..." }
func (h *QuotationHandler) Reject(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	qr, err := h.approvals.RejectQuotationRequest(c.Request.Context(), c.Param("id"), body.Reason, auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to reject quotation request")
		return
	}
	c.JSON(http.StatusOK, qr)
}
