package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/lumenlearn/guidance-backend/internal/http/handlers"
	httpMW "github.com/lumenlearn/guidance-backend/internal/http/middleware"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	UserHandler       *httpH.UserHandler
	OnboardingHandler *httpH.OnboardingHandler
	DiagnosticHandler *httpH.DiagnosticHandler
	PracticeHandler   *httpH.PracticeHandler
	RealtimeHandler   *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}

		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		if cfg.OnboardingHandler != nil {
			protected.GET("/onboarding/state", cfg.OnboardingHandler.GetState)
			protected.POST("/onboarding/welcome/ack", cfg.OnboardingHandler.AcknowledgeWelcome)
			protected.POST("/onboarding/prompts/dismiss", cfg.OnboardingHandler.DismissPrompt)
		}

		if cfg.DiagnosticHandler != nil {
			protected.POST("/diagnostics/attempts", cfg.DiagnosticHandler.StartAttempt)
			protected.POST("/diagnostics/attempts/:id/submit", cfg.DiagnosticHandler.SubmitAttempt)
		}

		if cfg.PracticeHandler != nil {
			protected.POST("/practice/activities/:id/complete", cfg.PracticeHandler.CompleteActivity)
		}
	}

	return r
}
