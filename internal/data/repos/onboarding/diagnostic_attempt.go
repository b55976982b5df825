package onboarding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type DiagnosticAttemptRepo interface {
	Create(dbc dbctx.Context, attempt *types.DiagnosticAttempt) (*types.DiagnosticAttempt, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DiagnosticAttempt, error)
	// HasOpenAttempt is the live "diagnostic in progress" signal.
	HasOpenAttempt(dbc dbctx.Context, userID uuid.UUID) (bool, error)
	MarkSubmitted(dbc dbctx.Context, id uuid.UUID, submittedAt time.Time) error
}

type diagnosticAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDiagnosticAttemptRepo(db *gorm.DB, baseLog *logger.Logger) DiagnosticAttemptRepo {
	return &diagnosticAttemptRepo{
		db:  db,
		log: baseLog.With("repo", "DiagnosticAttemptRepo"),
	}
}

func (r *diagnosticAttemptRepo) Create(dbc dbctx.Context, attempt *types.DiagnosticAttempt) (*types.DiagnosticAttempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *diagnosticAttemptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DiagnosticAttempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.DiagnosticAttempt
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *diagnosticAttemptRepo) HasOpenAttempt(dbc dbctx.Context, userID uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return false, nil
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.DiagnosticAttempt{}).
		Where("user_id = ? AND submitted_at IS NULL", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *diagnosticAttemptRepo) MarkSubmitted(dbc dbctx.Context, id uuid.UUID, submittedAt time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.DiagnosticAttempt{}).
		Where("id = ? AND submitted_at IS NULL", id).
		Updates(map[string]any{
			"submitted_at": submittedAt,
			"updated_at":   time.Now().UTC(),
		}).Error
}
