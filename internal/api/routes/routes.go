package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/prepvoice/prepvoice/internal/api/handlers"
	"github.com/prepvoice/prepvoice/internal/api/middleware"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	Scorecard *handlers.ScorecardHandler
	Template  *handlers.TemplateHandler
	Feedback  *handlers.FeedbackHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/api/auth/register", d.Auth.Register)
	r.POST("/api/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/api/auth/me", d.Auth.Me)

	auth.POST("/api/interviews", d.Interview.Create)
	auth.GET("/api/interviews", d.Interview.ListMine)
	auth.GET("/api/interviews/community", d.Interview.ListCommunity)
	auth.GET("/api/interviews/:id", d.Interview.Get)
	auth.GET("/api/interviews/:id/feedback", d.Interview.Feedback)

	auth.POST("/api/scorecard", d.Scorecard.Generate)
	auth.GET("/api/scorecard/:session_id", d.Scorecard.Get)

	auth.GET("/api/templates", d.Template.List)
	auth.GET("/api/templates/:id", d.Template.Get)

	auth.POST("/api/feedback/regenerate", middleware.RequireAdmin(), d.Feedback.Regenerate)

	// WebSocket
	auth.GET("/ws/session", d.WS.SessionWS)
}
