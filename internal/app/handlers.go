package app

import (
	httpH "github.com/lumenlearn/guidance-backend/internal/http/handlers"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
	"github.com/lumenlearn/guidance-backend/internal/realtime"
	"github.com/lumenlearn/guidance-backend/internal/realtime/bus"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Onboarding *httpH.OnboardingHandler
	Diagnostic *httpH.DiagnosticHandler
	Practice   *httpH.PracticeHandler
	Realtime   *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *realtime.SSEHub, b bus.Bus) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Auth:       httpH.NewAuthHandler(s.Auth),
		User:       httpH.NewUserHandler(s.User),
		Onboarding: httpH.NewOnboardingHandler(log, s.Onboarding, hub, b),
		Diagnostic: httpH.NewDiagnosticHandler(log, s.Diagnostic, hub, b),
		Practice:   httpH.NewPracticeHandler(log, s.Practice, hub, b),
		Realtime:   httpH.NewRealtimeHandler(log, hub),
	}
}
