package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/data/repos"
	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/onboarding"
	"github.com/lumenlearn/guidance-backend/internal/pkg/ctxutil"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	errs "github.com/lumenlearn/guidance-backend/internal/pkg/errors"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

// DiagnosticService is the attempt tracker. Open attempts feed the stage
// resolver's in-progress signal; submitting one raises the diagnostic
// milestone server-side so clients cannot forge completion.
type DiagnosticService interface {
	StartAttempt(ctx context.Context, subject string) (*types.DiagnosticAttempt, *OnboardingState, error)
	SubmitAttempt(ctx context.Context, attemptID uuid.UUID) (*OnboardingState, error)
}

type diagnosticService struct {
	db            *gorm.DB
	log           *logger.Logger
	catalog       *onboarding.Catalog
	factsRepo     repos.OnboardingFactsRepo
	attemptRepo   repos.DiagnosticAttemptRepo
	onboardingSvc OnboardingService
}

func NewDiagnosticService(
	db *gorm.DB,
	log *logger.Logger,
	catalog *onboarding.Catalog,
	factsRepo repos.OnboardingFactsRepo,
	attemptRepo repos.DiagnosticAttemptRepo,
	onboardingSvc OnboardingService,
) DiagnosticService {
	return &diagnosticService{
		db:            db,
		log:           log.With("service", "DiagnosticService"),
		catalog:       catalog,
		factsRepo:     factsRepo,
		attemptRepo:   attemptRepo,
		onboardingSvc: onboardingSvc,
	}
}

func (s *diagnosticService) StartAttempt(ctx context.Context, subject string) (*types.DiagnosticAttempt, *OnboardingState, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !s.catalog.ValidSubject(subject) {
		return nil, nil, fmt.Errorf("%w: unknown subject %q (expected one of %s)",
			errs.ErrInvalidArgument, subject, strings.Join(s.catalog.Subjects(), ", "))
	}

	var attempt *types.DiagnosticAttempt
	err = s.db.WithContext(ctxutil.Default(ctx)).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}

		// Lock the facts row so concurrent starts for the same user
		// serialize here; both then cannot pass the open-attempt check.
		if _, err := s.lockFacts(dbc, userID); err != nil {
			return fmt.Errorf("%w: lock facts: %v", errs.ErrUnavailable, err)
		}

		open, err := s.attemptRepo.HasOpenAttempt(dbc, userID)
		if err != nil {
			return fmt.Errorf("%w: check open attempts: %v", errs.ErrUnavailable, err)
		}
		if open {
			return fmt.Errorf("%w: an attempt is already in progress", errs.ErrConflict)
		}

		attempt = &types.DiagnosticAttempt{
			ID:        uuid.New(),
			UserID:    userID,
			Subject:   subject,
			StartedAt: time.Now().UTC(),
		}
		if attempt, err = s.attemptRepo.Create(dbc, attempt); err != nil {
			return fmt.Errorf("%w: create attempt: %v", errs.ErrUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	state, err := s.onboardingSvc.GetState(dbctx.Context{Ctx: ctxutil.Default(ctx)})
	if err != nil {
		s.log.Warn("resolve state after attempt start failed", "error", err, "user_id", userID)
		state = nil
	}
	return attempt, state, nil
}

// lockFacts takes the caller's facts row for the rest of the transaction,
// creating it first if the user predates the facts table.
func (s *diagnosticService) lockFacts(dbc dbctx.Context, userID uuid.UUID) (*types.UserOnboardingFacts, error) {
	facts, err := s.factsRepo.GetForUpdate(dbc, userID)
	if err != nil {
		return nil, err
	}
	if facts == nil {
		if err := s.factsRepo.Ensure(dbc, userID); err != nil {
			return nil, err
		}
		if facts, err = s.factsRepo.GetForUpdate(dbc, userID); err != nil {
			return nil, err
		}
	}
	return facts, nil
}

func (s *diagnosticService) SubmitAttempt(ctx context.Context, attemptID uuid.UUID) (*OnboardingState, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if attemptID == uuid.Nil {
		return nil, fmt.Errorf("%w: attempt id required", errs.ErrInvalidArgument)
	}

	var state *OnboardingState
	err = s.db.WithContext(ctxutil.Default(ctx)).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}

		attempt, err := s.attemptRepo.GetByID(dbc, attemptID)
		if err != nil {
			return fmt.Errorf("%w: load attempt: %v", errs.ErrUnavailable, err)
		}
		if attempt == nil {
			return fmt.Errorf("%w: attempt %s", errs.ErrNotFound, attemptID)
		}
		if attempt.UserID != userID {
			return fmt.Errorf("%w: attempt belongs to another user", errs.ErrUnauthorized)
		}

		if attempt.SubmittedAt == nil {
			if err := s.attemptRepo.MarkSubmitted(dbc, attempt.ID, time.Now().UTC()); err != nil {
				return fmt.Errorf("%w: mark submitted: %v", errs.ErrUnavailable, err)
			}
		}

		// Idempotent on resubmission: the subject append is a no-op.
		st, err := s.onboardingSvc.RecordDiagnosticCompleted(ctx, tx, userID, attempt.Subject)
		if err != nil {
			return err
		}
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
