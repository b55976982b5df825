package repos

import (
	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/data/repos/auth"
	"github.com/lumenlearn/guidance-backend/internal/data/repos/onboarding"
	"github.com/lumenlearn/guidance-backend/internal/data/repos/user"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type OnboardingFactsRepo = onboarding.OnboardingFactsRepo
type DiagnosticAttemptRepo = onboarding.DiagnosticAttemptRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo {
	return user.NewUserRepo(db, log)
}

func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}

func NewOnboardingFactsRepo(db *gorm.DB, log *logger.Logger) OnboardingFactsRepo {
	return onboarding.NewOnboardingFactsRepo(db, log)
}

func NewDiagnosticAttemptRepo(db *gorm.DB, log *logger.Logger) DiagnosticAttemptRepo {
	return onboarding.NewDiagnosticAttemptRepo(db, log)
}
