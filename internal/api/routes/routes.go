package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoodefence/internal/api/handlers"
	"github.com/yoockh/yoodefence/internal/api/middleware"
)

type Deps struct {
	Auth        middleware.AuthConfig
	RateLimiter *middleware.RateLimiter

	Health      *handlers.HealthHandler
	Generate    *handlers.GenerateHandler
	Interview   *handlers.InterviewHandler
	Feedback    *handlers.FeedbackHandler
	ProjectFile *handlers.ProjectFileHandler // nil without a bucket and SQL store
	Call        *handlers.CallHandler
	CallLog     *handlers.CallLogHandler // nil without a SQL store
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", d.Health.Ping)
	r.GET("/health", d.Health.Health)

	// Question generation accepts anonymous callers that pass userId.
	gen := r.Group("/api/vapi")
	if d.RateLimiter != nil {
		gen.Use(d.RateLimiter.Middleware())
	}
	gen.GET("/generate", d.Generate.Ping)
	gen.POST("/generate", middleware.OptionalJWTAuth(d.Auth), d.Generate.Generate)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Auth))

	auth.GET("/interviews", d.Interview.ListMine)
	auth.GET("/interviews/latest", d.Interview.ListLatest)
	auth.GET("/interview/:id", d.Interview.Get)
	auth.DELETE("/interview/:id", d.Interview.Delete)

	auth.GET("/interview/:id/feedback", d.Feedback.GetByInterview)
	auth.POST("/interview/:id/feedback", d.Feedback.Create)
	auth.DELETE("/feedback/:id", d.Feedback.Delete)

	if d.ProjectFile != nil {
		auth.POST("/project-files", d.ProjectFile.Upload)
		auth.GET("/project-files", d.ProjectFile.ListMine)
	}

	// WebSocket
	auth.GET("/ws/interview/:id/call", d.Call.CallWS)

	if d.CallLog != nil {
		admin := auth.Group("/admin", middleware.RequireAdmin())
		admin.GET("/call-logs", d.CallLog.List)
	}
}
