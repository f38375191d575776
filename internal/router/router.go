package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/planit/backend/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Profile   *apiHandler.ProfileHandler
	Task      *apiHandler.TaskHandler
	Points    *apiHandler.PointsHandler
	Analytics *apiHandler.AnalyticsHandler
	Assistant *apiHandler.AssistantHandler
	Health    *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)

	// Protected routes
	v1 := r.Group("/api/v1")
	v1.POST("/auth/logout", authMiddleware(handlers.Auth.Logout))

	v1.GET("/profile", authMiddleware(handlers.Profile.GetProfile))
	v1.PUT("/profile", authMiddleware(handlers.Profile.UpdateProfile))

	v1.GET("/tasks", authMiddleware(handlers.Task.GetTasks))
	v1.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	v1.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	v1.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	v1.POST("/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))

	v1.GET("/points", authMiddleware(handlers.Points.Summary))
	v1.POST("/points/checkin", authMiddleware(handlers.Points.Checkin))

	v1.GET("/analytics/stats", authMiddleware(handlers.Analytics.Stats))
	v1.GET("/analytics/overview", authMiddleware(handlers.Analytics.Overview))

	v1.POST("/assistant/chat", authMiddleware(handlers.Assistant.Chat))
	v1.POST("/assistant/command", authMiddleware(handlers.Assistant.Command))
	v1.POST("/assistant/parse", authMiddleware(handlers.Assistant.Parse))

	return r
}
