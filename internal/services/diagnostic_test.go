package services

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/onboarding"
	errs "github.com/lumenlearn/guidance-backend/internal/pkg/errors"
)

func TestStartAttemptValidatesSubject(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newUser(t)

	_, _, err := env.diagnostic.StartAttempt(ctx, "astronomy")
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	// The rejection names the catalog subjects.
	if !strings.Contains(err.Error(), "math") {
		t.Fatalf("err %q does not list valid subjects", err)
	}
}

func TestStartAttemptConflictsWithOpenAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newUser(t)

	attempt, state, err := env.diagnostic.StartAttempt(ctx, "math")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if attempt.SubmittedAt != nil {
		t.Fatalf("new attempt already submitted")
	}
	if state == nil || state.Stage != onboarding.StageDiagnosticInProgress {
		t.Fatalf("state after start = %+v, want %s", state, onboarding.StageDiagnosticInProgress)
	}

	if _, _, err := env.diagnostic.StartAttempt(ctx, "reading"); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("second start err = %v, want ErrConflict", err)
	}
}

func TestSubmitAttemptRecordsSubject(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	attempt, _, err := env.diagnostic.StartAttempt(ctx, "math")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	state, err := env.diagnostic.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if state.Stage != onboarding.StagePostDiagnostic {
		t.Fatalf("stage = %s, want %s", state.Stage, onboarding.StagePostDiagnostic)
	}
	if !state.Milestones.FirstDiagnosticCompleted {
		t.Fatalf("diagnostic milestone not set")
	}

	facts := env.loadFacts(t, userID)
	subjects := facts.CompletedSubjects()
	if len(subjects) != 1 || subjects[0] != "math" {
		t.Fatalf("completed subjects = %v, want [math]", subjects)
	}

	// Resubmission is a no-op that still returns the fresh state.
	state, err = env.diagnostic.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got := env.loadFacts(t, userID).CompletedSubjects(); len(got) != 1 {
		t.Fatalf("resubmit duplicated subject: %v", got)
	}
	if state.Stage != onboarding.StagePostDiagnostic {
		t.Fatalf("stage after resubmit = %s", state.Stage)
	}
}

func TestSubmitAttemptClosesInProgressSignal(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newUser(t)

	attempt, _, err := env.diagnostic.StartAttempt(ctx, "writing")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := env.diagnostic.SubmitAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	// A fresh attempt may start once the previous one is closed.
	if _, _, err := env.diagnostic.StartAttempt(ctx, "reading"); err != nil {
		t.Fatalf("start after submit: %v", err)
	}
}

func TestSubmitAttemptOwnership(t *testing.T) {
	env := newTestEnv(t)
	ownerCtx, _ := env.newUser(t)
	otherCtx, _ := env.newUser(t)

	attempt, _, err := env.diagnostic.StartAttempt(ownerCtx, "math")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := env.diagnostic.SubmitAttempt(otherCtx, attempt.ID); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("cross-user submit err = %v, want ErrUnauthorized", err)
	}
}

func TestSubmitAttemptNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newUser(t)

	if _, err := env.diagnostic.SubmitAttempt(ctx, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCompletedDiagnosticOutranksOpenAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newUser(t)

	first, _, err := env.diagnostic.StartAttempt(ctx, "math")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := env.diagnostic.SubmitAttempt(ctx, first.ID); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	_, state, err := env.diagnostic.StartAttempt(ctx, "reading")
	if err != nil {
		t.Fatalf("second StartAttempt: %v", err)
	}
	if state == nil || state.Stage != onboarding.StagePostDiagnostic {
		t.Fatalf("stage = %+v, want %s", state, onboarding.StagePostDiagnostic)
	}
}

func TestStartAttemptSerializesConcurrentStarts(t *testing.T) {
	env := newTestEnv(t)
	ctx, userID := env.newUser(t)

	// A single connection makes overlapping transactions queue the way
	// contended row locks do on postgres.
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const starters = 8
	results := make(chan error, starters)
	var wg sync.WaitGroup
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := env.diagnostic.StartAttempt(ctx, "math")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var started, conflicted int
	for err := range results {
		switch {
		case err == nil:
			started++
		case errors.Is(err, errs.ErrConflict):
			conflicted++
		default:
			t.Fatalf("StartAttempt: %v", err)
		}
	}
	if started != 1 || conflicted != starters-1 {
		t.Fatalf("started = %d, conflicted = %d, want 1 and %d", started, conflicted, starters-1)
	}

	var open int64
	if err := env.db.Model(&types.DiagnosticAttempt{}).
		Where("user_id = ? AND submitted_at IS NULL", userID).
		Count(&open).Error; err != nil {
		t.Fatalf("count open attempts: %v", err)
	}
	if open != 1 {
		t.Fatalf("open attempts = %d, want 1", open)
	}
}
