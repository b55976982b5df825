package services

import (
	"context"
	"fmt"
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

// OnboardingState is the resolved view returned to clients: the current
// stage, the single prompt to surface (or nil), and the milestone badges.
type OnboardingState struct {
	Stage      onboarding.Stage      `json:"stage"`
	Prompt     *onboarding.Prompt    `json:"prompt"`
	Milestones onboarding.Milestones `json:"milestones"`
}

// OnboardingService owns every read and mutation of onboarding facts.
// Event operations are idempotent: replaying one after it has taken effect
// is a no-op that still returns the fresh state.
type OnboardingService interface {
	GetState(dbc dbctx.Context) (*OnboardingState, error)
	AcknowledgeWelcome(ctx context.Context) (*OnboardingState, error)
	DismissPrompt(ctx context.Context, promptID string) (*OnboardingState, error)

	// Milestone events are raised by the diagnostic/practice subsystems,
	// never directly by clients.
	RecordDiagnosticCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, subject string) (*OnboardingState, error)
	RecordFirstPractice(ctx context.Context, userID uuid.UUID) (*OnboardingState, error)
}

type onboardingService struct {
	db          *gorm.DB
	log         *logger.Logger
	catalog     *onboarding.Catalog
	factsRepo   repos.OnboardingFactsRepo
	attemptRepo repos.DiagnosticAttemptRepo
}

func NewOnboardingService(
	db *gorm.DB,
	log *logger.Logger,
	catalog *onboarding.Catalog,
	factsRepo repos.OnboardingFactsRepo,
	attemptRepo repos.DiagnosticAttemptRepo,
) OnboardingService {
	return &onboardingService{
		db:          db,
		log:         log.With("service", "OnboardingService"),
		catalog:     catalog,
		factsRepo:   factsRepo,
		attemptRepo: attemptRepo,
	}
}

func (s *onboardingService) GetState(dbc dbctx.Context) (*OnboardingState, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: no authenticated user", errs.ErrUnauthorized)
	}
	userID := rd.UserID

	facts, err := s.factsRepo.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load onboarding facts: %v", errs.ErrUnavailable, err)
	}
	if facts == nil {
		// Facts are created with the user; recover for legacy rows.
		if err := s.factsRepo.Ensure(dbc, userID); err != nil {
			return nil, fmt.Errorf("%w: ensure onboarding facts: %v", errs.ErrUnavailable, err)
		}
		if facts, err = s.factsRepo.GetByUserID(dbc, userID); err != nil || facts == nil {
			return nil, fmt.Errorf("%w: reload onboarding facts: %v", errs.ErrUnavailable, err)
		}
	}

	inProgress, err := s.attemptRepo.HasOpenAttempt(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: read diagnostic attempts: %v", errs.ErrUnavailable, err)
	}

	now := time.Now().UTC()
	snap := snapshot(facts, inProgress)
	stage, derived := onboarding.Resolve(snap, now)
	prompt := s.catalog.SelectPrompt(stage, snap)

	// postDiagnosticPromptShownAt is stamped lazily, on the read that first
	// surfaces the prompt; derived completion is persisted the same way.
	needStamp := stage == onboarding.StagePostDiagnostic &&
		prompt != nil && facts.PostDiagnosticPromptShownAt == nil
	if !derived && !needStamp {
		return &OnboardingState{Stage: stage, Prompt: prompt, Milestones: snap.Milestones()}, nil
	}

	return s.mutate(ctxutil.Default(dbc.Ctx), userID, func(now time.Time, facts *types.UserOnboardingFacts) error {
		return nil
	})
}

func (s *onboardingService) AcknowledgeWelcome(ctx context.Context) (*OnboardingState, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(now time.Time, facts *types.UserOnboardingFacts) error {
		if facts.WelcomeAcknowledgedAt == nil {
			facts.WelcomeAcknowledgedAt = &now
		}
		return nil
	})
}

func (s *onboardingService) DismissPrompt(ctx context.Context, promptID string) (*OnboardingState, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := s.catalog.Lookup(promptID)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized prompt %q", errs.ErrInvalidArgument, promptID)
	}
	if !p.Dismissible {
		return nil, fmt.Errorf("%w: prompt %q is not dismissible", errs.ErrInvalidArgument, promptID)
	}
	return s.mutate(ctx, userID, func(now time.Time, facts *types.UserOnboardingFacts) error {
		dismissed := facts.DismissedPromptTimes()
		if _, exists := dismissed[promptID]; exists {
			// Re-dismissal keeps the original timestamp.
			return nil
		}
		dismissed[promptID] = now
		return facts.SetDismissedPromptTimes(dismissed)
	})
}

func (s *onboardingService) RecordDiagnosticCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, subject string) (*OnboardingState, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id required", errs.ErrInvalidArgument)
	}
	if !s.catalog.ValidSubject(subject) {
		return nil, fmt.Errorf("%w: unknown subject %q", errs.ErrInvalidArgument, subject)
	}
	apply := func(now time.Time, facts *types.UserOnboardingFacts) error {
		_, err := facts.AppendCompletedSubject(subject)
		return err
	}
	if tx != nil {
		return s.mutateInTx(ctx, tx, userID, apply)
	}
	return s.mutate(ctx, userID, apply)
}

func (s *onboardingService) RecordFirstPractice(ctx context.Context, userID uuid.UUID) (*OnboardingState, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id required", errs.ErrInvalidArgument)
	}
	return s.mutate(ctx, userID, func(now time.Time, facts *types.UserOnboardingFacts) error {
		if facts.FirstPracticeCompletedAt == nil {
			facts.FirstPracticeCompletedAt = &now
		}
		return nil
	})
}

// mutate runs apply against the row-locked facts record, re-resolves, and
// persists any derived facts, all in one transaction.
func (s *onboardingService) mutate(ctx context.Context, userID uuid.UUID, apply func(now time.Time, facts *types.UserOnboardingFacts) error) (*OnboardingState, error) {
	var state *OnboardingState
	err := s.db.WithContext(ctxutil.Default(ctx)).Transaction(func(tx *gorm.DB) error {
		st, err := s.mutateInTx(ctx, tx, userID, apply)
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

func (s *onboardingService) mutateInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, apply func(now time.Time, facts *types.UserOnboardingFacts) error) (*OnboardingState, error) {
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}

	facts, err := s.factsRepo.GetForUpdate(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: lock onboarding facts: %v", errs.ErrUnavailable, err)
	}
	if facts == nil {
		if err := s.factsRepo.Ensure(dbc, userID); err != nil {
			return nil, fmt.Errorf("%w: ensure onboarding facts: %v", errs.ErrUnavailable, err)
		}
		if facts, err = s.factsRepo.GetForUpdate(dbc, userID); err != nil || facts == nil {
			return nil, fmt.Errorf("%w: reload onboarding facts: %v", errs.ErrUnavailable, err)
		}
	}

	now := time.Now().UTC()
	if err := apply(now, facts); err != nil {
		return nil, err
	}

	inProgress, err := s.attemptRepo.HasOpenAttempt(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: read diagnostic attempts: %v", errs.ErrUnavailable, err)
	}

	snap := snapshot(facts, inProgress)
	stage, derived := onboarding.Resolve(snap, now)
	if derived {
		facts.OnboardingComplete = true
		snap.OnboardingComplete = true
	}

	prompt := s.catalog.SelectPrompt(stage, snap)
	if stage == onboarding.StagePostDiagnostic && prompt != nil && facts.PostDiagnosticPromptShownAt == nil {
		facts.PostDiagnosticPromptShownAt = &now
		snap.PostDiagnosticPromptShownAt = &now
	}

	if err := s.factsRepo.Save(dbc, facts); err != nil {
		return nil, fmt.Errorf("%w: save onboarding facts: %v", errs.ErrUnavailable, err)
	}

	return &OnboardingState{Stage: stage, Prompt: prompt, Milestones: snap.Milestones()}, nil
}

func snapshot(facts *types.UserOnboardingFacts, inProgress bool) onboarding.Facts {
	return onboarding.Facts{
		WelcomeAcknowledgedAt:       facts.WelcomeAcknowledgedAt,
		DismissedPrompts:            facts.DismissedPromptTimes(),
		DiagnosticCompletedSubjects: facts.CompletedSubjects(),
		DiagnosticInProgress:        inProgress,
		FirstPracticeCompletedAt:    facts.FirstPracticeCompletedAt,
		PostDiagnosticPromptShownAt: facts.PostDiagnosticPromptShownAt,
		OnboardingComplete:          facts.OnboardingComplete,
	}
}

func requireUser(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: no authenticated user", errs.ErrUnauthorized)
	}
	return rd.UserID, nil
}
