package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"opsdesk/internal/models"
	"opsdesk/internal/repositories"
	"opsdesk/internal/services"
)

type TaskHandler struct {
	service *services.TaskService
	timers  *services.TimerService
	users   repositories.UserRepository
	roles   repositories.RoleRepository
	log     *logrus.Logger
}

func NewTaskHandler(service *services.TaskService, timers *services.TimerService,
	users repositories.UserRepository, roles repositories.RoleRepository, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{service: service, timers: timers, users: users, roles: roles, log: log}
}

// taskResponse augments the stored task with the live elapsed projection.
type taskResponse struct {
	*models.Task
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

func (h *TaskHandler) respond(c *gin.Context, code int, task *models.Task) {
	c.JSON(code, taskResponse{Task: task, ElapsedSeconds: h.timers.Elapsed(task, time.Now())})
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}

	var req struct {
		Title                  string              `json:"title" binding:"required"`
		Priority               models.TaskPriority `json:"priority"`
		AssignedTo             string              `json:"assigned_to"`
		AssignedUsers          []string            `json:"assigned_users"`
		ProjectID              string              `json:"project_id"`
		LeadID                 string              `json:"lead_id"`
		QuotationRequestID     string              `json:"quotation_request_id"`
		QuotationRequestTaskID string              `json:"quotation_request_task_id"`
		RFQTag                 string              `json:"rfq_tag"`
		ReferenceModelNumber   string              `json:"reference_model_number"`
		DueDate                string              `json:"due_date"` // RFC3339
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infof("[task][create][bind][err] %v", err)
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

	task := &models.Task{
		Title:                  req.Title,
		Priority:               req.Priority,
		AssignedTo:             req.AssignedTo,
		AssignedUsers:          req.AssignedUsers,
		ProjectID:              req.ProjectID,
		LeadID:                 req.LeadID,
		QuotationRequestID:     req.QuotationRequestID,
		QuotationRequestTaskID: req.QuotationRequestTaskID,
		RFQTag:                 req.RFQTag,
		ReferenceModelNumber:   req.ReferenceModelNumber,
		DueDate:                due,
	}

	created, err := h.service.Create(c.Request.Context(), task, auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to create task")
		return
	}
	h.respond(c, http.StatusCreated, created)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("[task][getByID][err] id=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	h.respond(c, http.StatusOK, task)
}

// GET /tasks
func (h *TaskHandler) GetAll(c *gin.Context) {
	if _, ok := loadActor(c, h.users, h.roles, h.log); !ok {
		return
	}

	var filter models.TaskFilter
	if v, ok := c.GetQuery("assigned_to"); ok {
		filter.AssignedTo = &v
	}
	if v, ok := c.GetQuery("created_by"); ok {
		filter.CreatedBy = &v
	}
	if v, ok := c.GetQuery("project_id"); ok {
		filter.ProjectID = &v
	}
	if v, ok := c.GetQuery("lead_id"); ok {
		filter.LeadID = &v
	}
	if v, ok := c.GetQuery("status"); ok {
		st := models.TaskStatus(v)
		filter.Status = &st
	}

	tasks, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		h.log.Errorf("[task][list][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}

	var req struct {
		Title                *string              `json:"title"`
		Status               *models.TaskStatus   `json:"status"`
		Priority             *models.TaskPriority `json:"priority"`
		AssignedTo           *string              `json:"assigned_to"`
		AssignedUsers        *[]string            `json:"assigned_users"`
		DueDate              *string              `json:"due_date"` // RFC3339, "" clears
		ReferenceModelNumber *string              `json:"reference_model_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infof("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := services.TaskUpdate{
		Title:                req.Title,
		Status:               req.Status,
		Priority:             req.Priority,
		AssignedTo:           req.AssignedTo,
		AssignedUsers:        req.AssignedUsers,
		ReferenceModelNumber: req.ReferenceModelNumber,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			var cleared *time.Time
			upd.DueDate = &cleared
		} else {
			t, err := time.Parse(time.RFC3339, *req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (RFC3339)"})
				return
			}
			due := &t
			upd.DueDate = &due
		}
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), upd, auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to update task")
		return
	}
	h.respond(c, http.StatusOK, updated)
}

// POST /tasks/:id/timer/start
func (h *TaskHandler) StartTimer(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}
	task, err := h.timers.Start(c.Request.Context(), c.Param("id"), auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to start timer")
		return
	}
	h.respond(c, http.StatusOK, task)
}

// POST /tasks/:id/timer/stop
func (h *TaskHandler) StopTimer(c *gin.Context) {
	auth, ok := loadActor(c, h.users, h.roles, h.log)
	if !ok {
		return
	}
	task, err := h.timers.Stop(c.Request.Context(), c.Param("id"), auth.actor, auth.perms)
	if err != nil {
		writeServiceError(c, err, "failed to stop timer")
		return
	}
	h.respond(c, http.StatusOK, task)
}
