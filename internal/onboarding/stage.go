package onboarding

// Stage is one discrete phase of the onboarding progression. The zero-value
// ordering below is the progression order; Engaged is terminal.
type Stage string

const (
	StageWelcome              Stage = "welcome"
	StageProfileSetup         Stage = "profile_setup"
	StageDiagnosticNudge      Stage = "diagnostic_nudge"
	StageDiagnosticInProgress Stage = "diagnostic_in_progress"
	StagePostDiagnostic       Stage = "post_diagnostic"
	StageEngaged              Stage = "engaged"

	// StageUnknown is only ever returned by degraded reads, never by Resolve.
	StageUnknown Stage = "unknown"
)

var stageOrder = []Stage{
	StageWelcome,
	StageProfileSetup,
	StageDiagnosticNudge,
	StageDiagnosticInProgress,
	StagePostDiagnostic,
	StageEngaged,
}

// Rank returns the position of s in the progression, -1 for unknown stages.
func (s Stage) Rank() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Terminal() bool { return s == StageEngaged }

func (s Stage) String() string { return string(s) }
