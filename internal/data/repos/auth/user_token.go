package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, token *types.UserToken) (*types.UserToken, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserToken, error)
	GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error)
	UpdateRefreshToken(dbc dbctx.Context, id uuid.UUID, refreshToken string, expiresAt time.Time) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
	DeleteExpiredForUser(dbc dbctx.Context, userID uuid.UUID, cutoff time.Time) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) Create(dbc dbctx.Context, token *types.UserToken) (*types.UserToken, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *userTokenRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserToken, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.UserToken
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

func (r *userTokenRepo) GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if refreshToken == "" {
		return nil, nil
	}
	var row types.UserToken
	if err := t.WithContext(dbc.Ctx).
		Where("refresh_token = ?", refreshToken).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userTokenRepo) UpdateRefreshToken(dbc dbctx.Context, id uuid.UUID, refreshToken string, expiresAt time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.UserToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *userTokenRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.UserToken{}).Error
}

func (r *userTokenRepo) DeleteExpiredForUser(dbc dbctx.Context, userID uuid.UUID, cutoff time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("user_id = ? AND expires_at < ?", userID, cutoff).
		Delete(&types.UserToken{}).Error
}
