package onboarding

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lumenlearn/guidance-backend/internal/domain/user"
)

// UserOnboardingFacts is the durable per-user milestone record, 1:1 with
// user. It is created all-default alongside the user row and only ever
// mutated through the onboarding service. Timestamp fields are set-once;
// the subject list is append-only; onboarding_complete never flips back.
type UserOnboardingFacts struct {
	UserID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	WelcomeAcknowledgedAt *time.Time `gorm:"column:welcome_acknowledged_at" json:"welcome_acknowledged_at,omitempty"`

	// promptID -> dismissal time, one record per prompt.
	DismissedPrompts datatypes.JSON `gorm:"column:dismissed_prompts;type:jsonb" json:"dismissed_prompts,omitempty"`

	// Subjects with a completed diagnostic, e.g. ["reading","math"].
	DiagnosticCompletedSubjects datatypes.JSON `gorm:"column:diagnostic_completed_subjects;type:jsonb" json:"diagnostic_completed_subjects,omitempty"`

	FirstPracticeCompletedAt    *time.Time `gorm:"column:first_practice_completed_at" json:"first_practice_completed_at,omitempty"`
	PostDiagnosticPromptShownAt *time.Time `gorm:"column:post_diagnostic_prompt_shown_at" json:"post_diagnostic_prompt_shown_at,omitempty"`

	OnboardingComplete bool `gorm:"column:onboarding_complete;not null;default:false" json:"onboarding_complete"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserOnboardingFacts) TableName() string { return "user_onboarding_facts" }

// DismissedPromptTimes decodes the dismissed_prompts column. A malformed or
// empty column decodes to an empty map.
func (f *UserOnboardingFacts) DismissedPromptTimes() map[string]time.Time {
	out := map[string]time.Time{}
	if len(f.DismissedPrompts) == 0 {
		return out
	}
	_ = json.Unmarshal(f.DismissedPrompts, &out)
	return out
}

// SetDismissedPromptTimes re-encodes the dismissed_prompts column.
func (f *UserOnboardingFacts) SetDismissedPromptTimes(m map[string]time.Time) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	f.DismissedPrompts = datatypes.JSON(raw)
	return nil
}

// CompletedSubjects decodes the diagnostic_completed_subjects column.
func (f *UserOnboardingFacts) CompletedSubjects() []string {
	var out []string
	if len(f.DiagnosticCompletedSubjects) == 0 {
		return out
	}
	_ = json.Unmarshal(f.DiagnosticCompletedSubjects, &out)
	return out
}

// AppendCompletedSubject adds subject to the append-only list if absent and
// reports whether the list changed.
func (f *UserOnboardingFacts) AppendCompletedSubject(subject string) (bool, error) {
	subjects := f.CompletedSubjects()
	for _, s := range subjects {
		if s == subject {
			return false, nil
		}
	}
	subjects = append(subjects, subject)
	raw, err := json.Marshal(subjects)
	if err != nil {
		return false, err
	}
	f.DiagnosticCompletedSubjects = datatypes.JSON(raw)
	return true, nil
}
