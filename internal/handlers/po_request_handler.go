package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/pdf"
	"opsdesk/internal/repositories"
	"opsdesk/internal/services"
)

type PORequestHandler struct {
	service   *services.PORequestService
	approvals *services.ApprovalService
	pdfGen    *pdf.PORequestGenerator
	users     repositories.UserRepository
	roles     repositories.RoleRepository
	log       *logrus.Logger
}

func NewPORequestHandler(service *services.PORequestService, approvals *services.ApprovalService,
	pdfGen *pdf.PORequestGenerator, users repositories.UserRepository, roles repositories.RoleRepository,
	log *logrus.Logger) *PORequestHandler {
	return &PORequestHandler{service: service, approvals: approvals, pdfGen: pdfGen,
		users: users, roles: roles, log: log}
}

// @Summary      Create purchase-order request
// @Description  Validates, prices and stores a PO request; notifies approvers
// @Tags         PORequests
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.PurchaseOrderRequest
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /po-requests [post]
func (h *PORequestHandler) Create(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}

	var req struct {
		ProjectID  string `json:"project_id"`
		VendorID   string `json:"vendor_id"`
		VendorName string `json:"vendor_name"`
		Currency   string `json:"currency"`
		LineItems  []struct {
			Description string  `json:"description"`
			Qty         float64 `json:"qty"`
			UnitPrice   float64 `json:"unit_price"`
			TaxRate     float64 `json:"tax_rate"`
			Notes       string  `json:"notes"`
		} `json:"line_items"`
		Notes   string `json:"notes"`
		DueDate string `json:"due_date"` // RFC3339
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infof("[po][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var due *time.Time
	if req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (RFC3339)"})
			return
		}
		due = &t
	}

	in := &services.CreatePORequestInput{
		ProjectID:  req.ProjectID,
		VendorID:   req.VendorID,
		VendorName: req.VendorName,
		Currency:   req.Currency,
		Notes:      req.Notes,
		DueDate:    due,
	}
	for _, item := range req.LineItems {
		in.LineItems = append(in.LineItems, services.POLineItemInput{
			Description: item.Description,
			Qty:         item.Qty,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			Notes:       item.Notes,
		})
	}

	po, err := h.service.Create(c.Request.Context(), in, auth.actor, auth.perms, auth.resolver)
	if err != nil {
		writeServiceError(c, err, "Something went wrong. Please try again.")
		return
	}
	c.JSON(http.StatusCreated, po)
}

// GET /po-requests
func (h *PORequestHandler) List(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}
	out, err := h.service.List(c.Request.Context())
	if err != nil {
		h.log.Errorf("[po][list][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve PO requests"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /po-requests/:id
func (h *PORequestHandler) GetByID(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}
	po, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("[po][getByID][err] id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get PO request"})
		return
	}
	if po == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "PO request not found"})
		return
	}
	c.JSON(http.StatusOK, po)
}

// POST /po-requests/:id/approve
func (h *PORequestHandler) Approve(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}
	po, err := h.approvals.ApprovePORequest(c.Request.Context(), c.Param("id"), auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to approve PO request")
		return
	}
	c.JSON(http.StatusOK, po)
}

// POST /po-requests/:id/reject { "reason": "..." }
func (h *PORequestHandler) Reject(c *gin.Context) {
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
	po, err := h.approvals.RejectPORequest(c.Request.Context(), c.Param("id"), body.Reason, auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to reject PO request")
		return
	}
	c.JSON(http.StatusOK, po)
}

// GET /po-requests/:id/pdf
func (h *PORequestHandler) PDF(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}
	po, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("[po][pdf][err] id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get PO request"})
		return
	}
	if po == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "PO request not found"})
		return
	}

	buf, err := h.pdfGen.Generate(po)
	if err != nil {
		h.log.Errorf("[po][pdf][err] render id=%s: %v", po.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render PDF"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+po.RequestNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
