package app

import (
	httpx "github.com/lumenlearn/guidance-backend/internal/http"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, h Handlers, mw Middleware) *httpx.Server {
	return httpx.NewServer(httpx.RouterConfig{
		Log:               log,
		AuthHandler:       h.Auth,
		AuthMiddleware:    mw.Auth,
		UserHandler:       h.User,
		OnboardingHandler: h.Onboarding,
		DiagnosticHandler: h.Diagnostic,
		PracticeHandler:   h.Practice,
		RealtimeHandler:   h.Realtime,
		HealthHandler:     h.Health,
	})
}
