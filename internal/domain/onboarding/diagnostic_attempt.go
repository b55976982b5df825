package onboarding

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenlearn/guidance-backend/internal/domain/user"
)

// DiagnosticAttempt tracks one diagnostic sitting. An attempt with a nil
// SubmittedAt is the "diagnostic in progress" signal the stage resolver
// reads live; it is never cached on the facts row. The partial unique
// index on user_id keeps open attempts to at most one per user.
type DiagnosticAttempt struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_diagnostic_attempt_open,where:submitted_at IS NULL" json:"user_id"`
	User        *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Subject     string     `gorm:"not null;column:subject;index" json:"subject"`
	StartedAt   time.Time  `gorm:"column:started_at;not null;default:CURRENT_TIMESTAMP" json:"started_at"`
	SubmittedAt *time.Time `gorm:"column:submitted_at;index" json:"submitted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DiagnosticAttempt) TableName() string { return "diagnostic_attempt" }
