package onboarding

import (
	"testing"
	"time"
)

func ts(t time.Time) *time.Time { return &t }

func TestResolveFreshFactsIsWelcome(t *testing.T) {
	stage, derived := Resolve(Facts{}, time.Now())
	if stage != StageWelcome {
		t.Fatalf("fresh facts: want=%s got=%s", StageWelcome, stage)
	}
	if derived {
		t.Fatalf("fresh facts must not derive completion")
	}
}

func TestResolveAcknowledgedWelcomeIsDiagnosticNudge(t *testing.T) {
	now := time.Now()
	stage, _ := Resolve(Facts{WelcomeAcknowledgedAt: ts(now.Add(-time.Hour))}, now)
	if stage != StageDiagnosticNudge {
		t.Fatalf("want=%s got=%s", StageDiagnosticNudge, stage)
	}
}

func TestResolveCompletedDiagnosticIsPostDiagnostic(t *testing.T) {
	now := time.Now()
	f := Facts{
		WelcomeAcknowledgedAt:       ts(now.Add(-time.Hour)),
		DiagnosticCompletedSubjects: []string{"reading"},
	}
	stage, derived := Resolve(f, now)
	if stage != StagePostDiagnostic {
		t.Fatalf("want=%s got=%s", StagePostDiagnostic, stage)
	}
	if derived {
		t.Fatalf("post_diagnostic must not derive completion")
	}
}

func TestResolveDiagnosticDominatesWelcome(t *testing.T) {
	// Migrated user: completed diagnostic, never acknowledged welcome.
	stage, _ := Resolve(Facts{DiagnosticCompletedSubjects: []string{"math"}}, time.Now())
	if stage != StagePostDiagnostic {
		t.Fatalf("want=%s got=%s", StagePostDiagnostic, stage)
	}
}

func TestResolveInProgressAttempt(t *testing.T) {
	now := time.Now()
	stage, _ := Resolve(Facts{
		WelcomeAcknowledgedAt: ts(now.Add(-time.Hour)),
		DiagnosticInProgress:  true,
	}, now)
	if stage != StageDiagnosticInProgress {
		t.Fatalf("want=%s got=%s", StageDiagnosticInProgress, stage)
	}
}

func TestResolveCompletedDiagnosticOutranksInProgress(t *testing.T) {
	// A second attempt in flight must not regress past post_diagnostic.
	stage, _ := Resolve(Facts{
		DiagnosticCompletedSubjects: []string{"reading"},
		DiagnosticInProgress:        true,
	}, time.Now())
	if stage != StagePostDiagnostic {
		t.Fatalf("want=%s got=%s", StagePostDiagnostic, stage)
	}
}

func TestResolveFirstPracticeDerivesEngaged(t *testing.T) {
	now := time.Now()
	f := Facts{
		DiagnosticCompletedSubjects: []string{"reading"},
		FirstPracticeCompletedAt:    ts(now.Add(-time.Minute)),
	}
	stage, derived := Resolve(f, now)
	if stage != StageEngaged {
		t.Fatalf("want=%s got=%s", StageEngaged, stage)
	}
	if !derived {
		t.Fatalf("expected derived completion for caller to persist")
	}
}

func TestResolveAutoAdvanceAfterSevenDays(t *testing.T) {
	shown := time.Now()
	f := Facts{
		DiagnosticCompletedSubjects: []string{"reading"},
		PostDiagnosticPromptShownAt: ts(shown),
	}

	stage, _ := Resolve(f, shown.Add(6*24*time.Hour))
	if stage != StagePostDiagnostic {
		t.Fatalf("6 days: want=%s got=%s", StagePostDiagnostic, stage)
	}

	stage, derived := Resolve(f, shown.Add(8*24*time.Hour))
	if stage != StageEngaged {
		t.Fatalf("8 days: want=%s got=%s", StageEngaged, stage)
	}
	if !derived {
		t.Fatalf("8 days: expected derived completion")
	}

	// The boundary itself is not yet past due.
	stage, _ = Resolve(f, shown.Add(PostDiagnosticAutoAdvanceAfter))
	if stage != StagePostDiagnostic {
		t.Fatalf("exactly 7 days: want=%s got=%s", StagePostDiagnostic, stage)
	}
}

func TestResolveCompleteFlagAbsorbs(t *testing.T) {
	// onboarding_complete dominates every other fact combination.
	combos := []Facts{
		{OnboardingComplete: true},
		{OnboardingComplete: true, DiagnosticInProgress: true},
		{OnboardingComplete: true, WelcomeAcknowledgedAt: ts(time.Now())},
		{OnboardingComplete: true, DiagnosticCompletedSubjects: []string{"writing"}},
	}
	for i, f := range combos {
		stage, derived := Resolve(f, time.Now())
		if stage != StageEngaged {
			t.Fatalf("combo %d: want=%s got=%s", i, StageEngaged, stage)
		}
		if derived {
			t.Fatalf("combo %d: already-complete facts must not re-derive", i)
		}
	}
}

func TestResolveMonotonicOverEventSequence(t *testing.T) {
	// Applying the happy-path events in order never decreases the stage rank.
	now := time.Now()
	f := Facts{}
	prev := -1

	check := func(label string) {
		stage, derived := Resolve(f, now)
		if derived {
			f.OnboardingComplete = true
		}
		if stage.Rank() < prev {
			t.Fatalf("%s: stage regressed to %s (rank %d < %d)", label, stage, stage.Rank(), prev)
		}
		prev = stage.Rank()
	}

	check("fresh")
	f.WelcomeAcknowledgedAt = ts(now)
	check("welcome acknowledged")
	f.DiagnosticInProgress = true
	check("attempt started")
	f.DiagnosticInProgress = false
	f.DiagnosticCompletedSubjects = []string{"reading"}
	check("diagnostic completed")
	f.PostDiagnosticPromptShownAt = ts(now)
	check("prompt stamped")
	f.FirstPracticeCompletedAt = ts(now)
	check("first practice")
	check("terminal re-resolve")

	if prev != StageEngaged.Rank() {
		t.Fatalf("sequence should end engaged, got rank %d", prev)
	}
}

func TestMilestonesDerivation(t *testing.T) {
	now := time.Now()
	m := Facts{
		WelcomeAcknowledgedAt:       ts(now),
		DiagnosticCompletedSubjects: []string{"math"},
	}.Milestones()
	if !m.WelcomeSeen || !m.FirstDiagnosticCompleted {
		t.Fatalf("unexpected milestones: %+v", m)
	}
	if m.FirstPracticeCompleted || m.OnboardingCompleted {
		t.Fatalf("unexpected milestones: %+v", m)
	}
}

func TestStageRankOrdering(t *testing.T) {
	if StageWelcome.Rank() >= StageProfileSetup.Rank() ||
		StageProfileSetup.Rank() >= StageDiagnosticNudge.Rank() ||
		StageDiagnosticNudge.Rank() >= StageDiagnosticInProgress.Rank() ||
		StageDiagnosticInProgress.Rank() >= StagePostDiagnostic.Rank() ||
		StagePostDiagnostic.Rank() >= StageEngaged.Rank() {
		t.Fatalf("stage ordering broken")
	}
	if StageUnknown.Rank() != -1 {
		t.Fatalf("unknown stage must have rank -1")
	}
}
