package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/data/repos"
	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	errs "github.com/lumenlearn/guidance-backend/internal/pkg/errors"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (s *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, userID)
}

func (s *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := s.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: user %s", errs.ErrNotFound, userID)
	}
	return users[0], nil
}
