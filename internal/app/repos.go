package app

import (
	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/data/repos"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type Repos struct {
	User              repos.UserRepo
	UserToken         repos.UserTokenRepo
	OnboardingFacts   repos.OnboardingFactsRepo
	DiagnosticAttempt repos.DiagnosticAttemptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		UserToken:         repos.NewUserTokenRepo(db, log),
		OnboardingFacts:   repos.NewOnboardingFactsRepo(db, log),
		DiagnosticAttempt: repos.NewDiagnosticAttemptRepo(db, log),
	}
}
