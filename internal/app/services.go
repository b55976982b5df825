package app

import (
	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/onboarding"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
	"github.com/lumenlearn/guidance-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Onboarding services.OnboardingService
	Diagnostic services.DiagnosticService
	Practice   services.PracticeService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) Services {
	log.Info("Wiring services...")
	catalog := onboarding.Default()

	onboardingSvc := services.NewOnboardingService(db, log, catalog, r.OnboardingFacts, r.DiagnosticAttempt)
	return Services{
		Auth: services.NewAuthService(
			db, log, r.User, r.UserToken, r.OnboardingFacts,
			cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
		),
		User:       services.NewUserService(db, log, r.User),
		Onboarding: onboardingSvc,
		Diagnostic: services.NewDiagnosticService(db, log, catalog, r.OnboardingFacts, r.DiagnosticAttempt, onboardingSvc),
		Practice:   services.NewPracticeService(db, log, onboardingSvc),
	}
}
