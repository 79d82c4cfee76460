package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/app"
	iauth "github.com/qrcs/qrcs/internal/auth"
	"github.com/qrcs/qrcs/internal/handlers"
	"github.com/qrcs/qrcs/internal/middleware"
	"github.com/qrcs/qrcs/internal/notifications"
	"github.com/qrcs/qrcs/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *notifications.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	var pusher services.Pusher
	if hub != nil {
		pusher = hub
	}
	notifier, err := services.NewNotifier(db, pusher)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	// Users
	userHandler, err := handlers.NewUserHandler(db)
	if err != nil {
		return nil, err
	}
	users := api.Group("/users")
	{
		users.GET("", userHandler.List)
		users.POST("/availability", userHandler.ToggleAvailability)
	}

	// Categories
	categoryHandler, err := handlers.NewCategoryHandler(db)
	if err != nil {
		return nil, err
	}
	categories := api.Group("/categories")
	{
		categories.GET("", categoryHandler.List)
		categories.POST("", categoryHandler.Create)
		categories.PATCH("/:id", categoryHandler.Update)
		categories.DELETE("/:id", categoryHandler.Delete)
	}

	// Incidents
	incidentHandler, err := handlers.NewIncidentHandler(db, notifier)
	if err != nil {
		return nil, err
	}
	assignmentHandler, err := handlers.NewAssignmentHandler(db, notifier)
	if err != nil {
		return nil, err
	}
	responseLogHandler, err := handlers.NewResponseLogHandler(db, notifier)
	if err != nil {
		return nil, err
	}
	incidents := api.Group("/incidents")
	{
		incidents.POST("", incidentHandler.Create)
		incidents.GET("", incidentHandler.List)
		incidents.GET("/nearby", incidentHandler.Nearby)
		incidents.GET("/:id", incidentHandler.Get)
		incidents.PATCH("/:id/status", incidentHandler.UpdateStatus)

		incidents.POST("/:id/assignments", assignmentHandler.Assign)
		incidents.GET("/:id/assignments", assignmentHandler.List)

		incidents.POST("/:id/responses", responseLogHandler.Create)
		incidents.GET("/:id/responses", responseLogHandler.List)
	}
	api.POST("/assignments/:teamId/lead", assignmentHandler.SetLead)

	// Notifications
	notificationHandler, err := handlers.NewNotificationHandler(db)
	if err != nil {
		return nil, err
	}
	notificationRoutes := api.Group("/notifications")
	{
		notificationRoutes.GET("", notificationHandler.List)
		notificationRoutes.GET("/unread_count", notificationHandler.UnreadCount)
		notificationRoutes.POST("/:id/read", notificationHandler.MarkRead)
		notificationRoutes.POST("/read_all", notificationHandler.MarkAllRead)
	}

	// Dashboard
	dashboardHandler, err := handlers.NewDashboardHandler(db)
	if err != nil {
		return nil, err
	}
	dashboard := api.Group("/dashboard")
	{
		dashboard.GET("/stats", dashboardHandler.Stats)
		dashboard.GET("/trend", dashboardHandler.Trend)
	}

	// Realtime notification stream
	if hub != nil {
		realtimeHandler := handlers.NewRealtimeHandler(hub)
		r.GET("/ws/notifications", requireAuth, realtimeHandler.Stream)
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
