package routes

import (
	"github.com/gin-gonic/gin"

	"opsdesk/internal/handlers"
	"opsdesk/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	poHandler *handlers.PORequestHandler,
	quotationHandler *handlers.QuotationHandler,
	leadHandler *handlers.LeadHandler,
	notificationHandler *handlers.NotificationHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("/", taskHandler.Create)
		tasks.GET("/", taskHandler.GetAll)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.POST("/:id/timer/start", taskHandler.StartTimer)
		tasks.POST("/:id/timer/stop", taskHandler.StopTimer)
	}

	// PO REQUESTS
	po := r.Group("/po-requests")
	{
		po.POST("", poHandler.Create)
		po.GET("", poHandler.List)
		po.GET("/:id", poHandler.GetByID)
		po.POST("/:id/approve", poHandler.Approve)
		po.POST("/:id/reject", poHandler.Reject)
		po.GET("/:id/pdf", poHandler.PDF)
	}

	// QUOTATION REQUESTS
	quotations := r.Group("/quotation-requests")
	{
		quotations.GET("/:id", quotationHandler.GetByID)
		quotations.POST("/:id/approve", quotationHandler.Approve)
		quotations.POST("/:id/reject", quotationHandler.Reject)
	}

	// LEADS
	leads := r.Group("/leads")
	{
		leads.GET("/:id", leadHandler.GetByID)
		leads.GET("/:id/activities", leadHandler.ListActivities)
	}

	// NOTIFICATIONS
	r.GET("/notifications", notificationHandler.List)

	return r
}
