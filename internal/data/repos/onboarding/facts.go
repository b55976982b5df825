package onboarding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

// OnboardingFactsRepo is the fact store adapter. Mutations go through
// GetForUpdate+Save inside a transaction so concurrent events for the same
// user serialize on the row instead of losing updates.
type OnboardingFactsRepo interface {
	Ensure(dbc dbctx.Context, userID uuid.UUID) error
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserOnboardingFacts, error)
	GetForUpdate(dbc dbctx.Context, userID uuid.UUID) (*types.UserOnboardingFacts, error)
	Save(dbc dbctx.Context, facts *types.UserOnboardingFacts) error
}

type onboardingFactsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOnboardingFactsRepo(db *gorm.DB, baseLog *logger.Logger) OnboardingFactsRepo {
	return &onboardingFactsRepo{
		db:  db,
		log: baseLog.With("repo", "OnboardingFactsRepo"),
	}
}

func (r *onboardingFactsRepo) Ensure(dbc dbctx.Context, userID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	row := &types.UserOnboardingFacts{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *onboardingFactsRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserOnboardingFacts, error) {
	return r.get(dbc, userID, false)
}

func (r *onboardingFactsRepo) GetForUpdate(dbc dbctx.Context, userID uuid.UUID) (*types.UserOnboardingFacts, error) {
	return r.get(dbc, userID, true)
}

func (r *onboardingFactsRepo) get(dbc dbctx.Context, userID uuid.UUID, forUpdate bool) (*types.UserOnboardingFacts, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx)
	// SQLite (tests) has no row locks; its writes serialize anyway.
	if forUpdate && t.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.UserOnboardingFacts
	if err := q.
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.UserID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *onboardingFactsRepo) Save(dbc dbctx.Context, facts *types.UserOnboardingFacts) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	facts.UpdatedAt = time.Now().UTC()
	return t.WithContext(dbc.Ctx).Save(facts).Error
}
