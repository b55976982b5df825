package onboarding

import "time"

// PostDiagnosticAutoAdvanceAfter is how long a surfaced post-diagnostic
// prompt may sit unanswered before the user is considered engaged anyway.
const PostDiagnosticAutoAdvanceAfter = 7 * 24 * time.Hour

// Facts is an immutable snapshot of a user's onboarding milestones.
// DiagnosticInProgress is a live read from the diagnostic-attempt tracker,
// not a stored fact.
type Facts struct {
	WelcomeAcknowledgedAt       *time.Time
	DismissedPrompts            map[string]time.Time
	DiagnosticCompletedSubjects []string
	DiagnosticInProgress        bool
	FirstPracticeCompletedAt    *time.Time
	PostDiagnosticPromptShownAt *time.Time
	OnboardingComplete          bool
}

// Milestones are the derived booleans exposed to clients.
type Milestones struct {
	WelcomeSeen              bool `json:"welcome_seen"`
	FirstDiagnosticCompleted bool `json:"first_diagnostic_completed"`
	FirstPracticeCompleted   bool `json:"first_practice_completed"`
	OnboardingCompleted      bool `json:"onboarding_completed"`
}

func (f Facts) Milestones() Milestones {
	return Milestones{
		WelcomeSeen:              f.WelcomeAcknowledgedAt != nil,
		FirstDiagnosticCompleted: len(f.DiagnosticCompletedSubjects) > 0,
		FirstPracticeCompleted:   f.FirstPracticeCompletedAt != nil,
		OnboardingCompleted:      f.OnboardingComplete,
	}
}

// Resolve maps a fact snapshot to exactly one stage. Pure: no I/O, same
// input always yields the same output.
//
// Rules are evaluated top-down, first match wins, NOT in stage-graph order:
// later facts can outrun earlier ones (a migrated user may have a completed
// diagnostic and no welcome acknowledgement, and must still resolve past
// welcome).
//
// The second return is true when the engaged stage was newly derived from
// other facts and onboarding_complete should be persisted by the caller;
// the resolver itself never writes.
func Resolve(f Facts, now time.Time) (Stage, bool) {
	if f.OnboardingComplete {
		return StageEngaged, false
	}
	if len(f.DiagnosticCompletedSubjects) > 0 {
		if f.FirstPracticeCompletedAt != nil {
			return StageEngaged, true
		}
		if f.PostDiagnosticPromptShownAt != nil &&
			now.Sub(*f.PostDiagnosticPromptShownAt) > PostDiagnosticAutoAdvanceAfter {
			return StageEngaged, true
		}
		return StagePostDiagnostic, false
	}
	if f.DiagnosticInProgress {
		return StageDiagnosticInProgress, false
	}
	if f.WelcomeAcknowledgedAt != nil {
		// Profile completeness is always satisfied post-auth today; this
		// rule slot is reserved for a real check that would resolve to
		// StageProfileSetup without renumbering the rules below.
		return StageDiagnosticNudge, false
	}
	return StageWelcome, false
}
