package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	errs "github.com/lumenlearn/guidance-backend/internal/pkg/errors"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

// PracticeService raises the first-practice milestone when a practice
// activity completes. The wider practice subsystem lives elsewhere; only
// the completion hook matters here.
type PracticeService interface {
	CompleteActivity(ctx context.Context, activityID uuid.UUID) (*OnboardingState, error)
}

type practiceService struct {
	db            *gorm.DB
	log           *logger.Logger
	onboardingSvc OnboardingService
}

func NewPracticeService(db *gorm.DB, log *logger.Logger, onboardingSvc OnboardingService) PracticeService {
	return &practiceService{
		db:            db,
		log:           log.With("service", "PracticeService"),
		onboardingSvc: onboardingSvc,
	}
}

func (s *practiceService) CompleteActivity(ctx context.Context, activityID uuid.UUID) (*OnboardingState, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if activityID == uuid.Nil {
		return nil, fmt.Errorf("%w: activity id required", errs.ErrInvalidArgument)
	}
	return s.onboardingSvc.RecordFirstPractice(ctx, userID)
}
