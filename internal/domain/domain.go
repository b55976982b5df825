package domain

import (
	"github.com/lumenlearn/guidance-backend/internal/domain/auth"
	"github.com/lumenlearn/guidance-backend/internal/domain/onboarding"
	"github.com/lumenlearn/guidance-backend/internal/domain/user"
)

type User = user.User
type UserToken = auth.UserToken

type UserOnboardingFacts = onboarding.UserOnboardingFacts
type DiagnosticAttempt = onboarding.DiagnosticAttempt
