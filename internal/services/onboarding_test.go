package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlearn/guidance-backend/internal/onboarding"
	"github.com/lumenlearn/guidance-backend/internal/pkg/ctxutil"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	errs "github.com/lumenlearn/guidance-backend/internal/pkg/errors"
)

func TestGetStateFreshUser(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newUser(t)

	state, err := env.onboarding.GetState(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Stage != onboarding.StageWelcome {
		t.Fatalf("stage = %s, want %s", state.Stage, onboarding.StageWelcome)
	}
	if state.Prompt == nil || state.Prompt.ID != "welcome" {
		t.Fatalf("prompt = %+v, want welcome", state.Prompt)
	}
	if state.Prompt.Dismissible {
		t.Fatalf("welcome prompt must not be dismissible")
	}
	if state.Milestones.WelcomeSeen || state.Milestones.OnboardingCompleted {
		t.Fatalf("fresh user has milestones set: %+v", state.Milestones)
	}
}

func TestGetStateUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.onboarding.GetState(dbctx.Context{Ctx: context.Background()})
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestAcknowledgeWelcomeIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	state, err := env.onboarding.AcknowledgeWelcome(ctx)
	if err != nil {
		t.Fatalf("AcknowledgeWelcome: %v", err)
	}
	if state.Stage != onboarding.StageDiagnosticNudge {
		t.Fatalf("stage = %s, want %s", state.Stage, onboarding.StageDiagnosticNudge)
	}
	if !state.Milestones.WelcomeSeen {
		t.Fatalf("welcome_seen milestone not set")
	}
	first := env.loadFacts(t, userID).WelcomeAcknowledgedAt
	if first == nil {
		t.Fatalf("welcome_acknowledged_at not persisted")
	}

	time.Sleep(5 * time.Millisecond)
	state, err = env.onboarding.AcknowledgeWelcome(ctx)
	if err != nil {
		t.Fatalf("second AcknowledgeWelcome: %v", err)
	}
	if state.Stage != onboarding.StageDiagnosticNudge {
		t.Fatalf("stage after replay = %s", state.Stage)
	}
	second := env.loadFacts(t, userID).WelcomeAcknowledgedAt
	if second == nil || !second.Equal(*first) {
		t.Fatalf("replay changed welcome_acknowledged_at: %v -> %v", first, second)
	}
}

func TestDismissPromptIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	if _, err := env.onboarding.AcknowledgeWelcome(ctx); err != nil {
		t.Fatalf("AcknowledgeWelcome: %v", err)
	}

	state, err := env.onboarding.DismissPrompt(ctx, "diagnostic_nudge")
	if err != nil {
		t.Fatalf("DismissPrompt: %v", err)
	}
	if state.Stage != onboarding.StageDiagnosticNudge {
		t.Fatalf("dismissal must not change stage, got %s", state.Stage)
	}
	if state.Prompt != nil {
		t.Fatalf("dismissed prompt still surfaced: %+v", state.Prompt)
	}
	first := env.loadFacts(t, userID).DismissedPromptTimes()["diagnostic_nudge"]
	if first.IsZero() {
		t.Fatalf("dismissal not persisted")
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := env.onboarding.DismissPrompt(ctx, "diagnostic_nudge"); err != nil {
		t.Fatalf("second DismissPrompt: %v", err)
	}
	second := env.loadFacts(t, userID).DismissedPromptTimes()["diagnostic_nudge"]
	if !second.Equal(first) {
		t.Fatalf("re-dismissal changed timestamp: %v -> %v", first, second)
	}
}

func TestDismissPromptValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newUser(t)

	if _, err := env.onboarding.DismissPrompt(ctx, "no-such-prompt"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("unknown prompt err = %v, want ErrInvalidArgument", err)
	}
	if _, err := env.onboarding.DismissPrompt(ctx, "welcome"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("non-dismissible prompt err = %v, want ErrInvalidArgument", err)
	}
}

func TestPostDiagnosticPromptStampedOnRead(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	facts := env.loadFacts(t, userID)
	if _, err := facts.AppendCompletedSubject("math"); err != nil {
		t.Fatalf("append subject: %v", err)
	}
	env.saveFacts(t, facts)

	if shown := env.loadFacts(t, userID).PostDiagnosticPromptShownAt; shown != nil {
		t.Fatalf("shown_at set before any read: %v", shown)
	}

	state, err := env.onboarding.GetState(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Stage != onboarding.StagePostDiagnostic {
		t.Fatalf("stage = %s, want %s", state.Stage, onboarding.StagePostDiagnostic)
	}
	first := env.loadFacts(t, userID).PostDiagnosticPromptShownAt
	if first == nil {
		t.Fatalf("shown_at not stamped on the surfacing read")
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := env.onboarding.GetState(dbctx.Context{Ctx: ctx}); err != nil {
		t.Fatalf("second GetState: %v", err)
	}
	second := env.loadFacts(t, userID).PostDiagnosticPromptShownAt
	if second == nil || !second.Equal(*first) {
		t.Fatalf("later read moved shown_at: %v -> %v", first, second)
	}
}

func TestPostDiagnosticAutoAdvance(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	facts := env.loadFacts(t, userID)
	if _, err := facts.AppendCompletedSubject("reading"); err != nil {
		t.Fatalf("append subject: %v", err)
	}
	shown := time.Now().UTC().Add(-8 * 24 * time.Hour)
	facts.PostDiagnosticPromptShownAt = &shown
	env.saveFacts(t, facts)

	state, err := env.onboarding.GetState(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Stage != onboarding.StageEngaged {
		t.Fatalf("stage = %s, want %s after the window lapses", state.Stage, onboarding.StageEngaged)
	}
	if state.Prompt != nil {
		t.Fatalf("terminal stage surfaced a prompt: %+v", state.Prompt)
	}
	if !env.loadFacts(t, userID).OnboardingComplete {
		t.Fatalf("derived completion not persisted")
	}
}

func TestFirstPracticeDerivesCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	facts := env.loadFacts(t, userID)
	if _, err := facts.AppendCompletedSubject("writing"); err != nil {
		t.Fatalf("append subject: %v", err)
	}
	env.saveFacts(t, facts)

	state, err := env.practice.CompleteActivity(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CompleteActivity: %v", err)
	}
	if state.Stage != onboarding.StageEngaged {
		t.Fatalf("stage = %s, want %s", state.Stage, onboarding.StageEngaged)
	}
	if !state.Milestones.FirstPracticeCompleted || !state.Milestones.OnboardingCompleted {
		t.Fatalf("milestones = %+v", state.Milestones)
	}
	stored := env.loadFacts(t, userID)
	if stored.FirstPracticeCompletedAt == nil || !stored.OnboardingComplete {
		t.Fatalf("practice completion not persisted: %+v", stored)
	}
}

func TestFirstPracticeBeforeDiagnosticDoesNotComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	state, err := env.practice.CompleteActivity(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CompleteActivity: %v", err)
	}
	if state.Stage != onboarding.StageWelcome {
		t.Fatalf("stage = %s, want %s", state.Stage, onboarding.StageWelcome)
	}
	stored := env.loadFacts(t, userID)
	if stored.FirstPracticeCompletedAt == nil {
		t.Fatalf("practice milestone not recorded")
	}
	if stored.OnboardingComplete {
		t.Fatalf("completion derived without a diagnostic")
	}
}

func TestTerminalStageAbsorbs(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	facts := env.loadFacts(t, userID)
	facts.OnboardingComplete = true
	env.saveFacts(t, facts)

	state, err := env.onboarding.AcknowledgeWelcome(ctx)
	if err != nil {
		t.Fatalf("AcknowledgeWelcome: %v", err)
	}
	if state.Stage != onboarding.StageEngaged || state.Prompt != nil {
		t.Fatalf("terminal state regressed: stage=%s prompt=%+v", state.Stage, state.Prompt)
	}
	if !env.loadFacts(t, userID).OnboardingComplete {
		t.Fatalf("onboarding_complete flipped back")
	}
}

func TestRecordDiagnosticCompletedValidation(t *testing.T) {
	env := newTestEnv(t)
	_, userID := env.newUser(t)
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})

	if _, err := env.onboarding.RecordDiagnosticCompleted(ctx, nil, uuid.Nil, "math"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("nil user err = %v, want ErrInvalidArgument", err)
	}
	if _, err := env.onboarding.RecordDiagnosticCompleted(ctx, nil, userID, "astronomy"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("unknown subject err = %v, want ErrInvalidArgument", err)
	}
}
