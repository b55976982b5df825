package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/data/repos"
	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/pkg/ctxutil"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	errs "github.com/lumenlearn/guidance-backend/internal/pkg/errors"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	factsRepo     repos.OnboardingFactsRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	factsRepo repos.OnboardingFactsRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		factsRepo:     factsRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", errs.ErrInvalidArgument)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password too short", errs.ErrInvalidArgument)
	}

	exists, err := s.userRepo.EmailExists(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", errs.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}

	// The onboarding facts row is born with the user, all-default.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.factsRepo.Ensure(dbc, user.ID); err != nil {
			return fmt.Errorf("create onboarding facts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := s.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized)
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", errs.ErrUnauthorized)
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.userTokenRepo.DeleteExpiredForUser(dbc, user.ID, time.Now()); err != nil {
			return fmt.Errorf("prune expired sessions: %w", err)
		}
		token := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			RefreshToken: uuid.New().String(),
			ExpiresAt:    time.Now().Add(s.refreshTTL),
		}
		if _, err := s.userTokenRepo.Create(dbc, token); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		access, err := s.mintAccessToken(user.ID, token.ID)
		if err != nil {
			return err
		}
		pair = &TokenPair{
			AccessToken:  access,
			RefreshToken: token.RefreshToken,
			ExpiresIn:    int64(s.accessTTL.Seconds()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	row, err := s.userTokenRepo.GetByRefreshToken(dbctx.Context{Ctx: ctx}, strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if row == nil || row.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: invalid refresh token", errs.ErrUnauthorized)
	}

	rotated := uuid.New().String()
	expiresAt := time.Now().Add(s.refreshTTL)
	if err := s.userTokenRepo.UpdateRefreshToken(dbctx.Context{Ctx: ctx}, row.ID, rotated, expiresAt); err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	access, err := s.mintAccessToken(row.UserID, row.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: rotated,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.SessionID == uuid.Nil {
		return fmt.Errorf("%w: no active session", errs.ErrUnauthorized)
	}
	return s.userTokenRepo.DeleteByID(dbctx.Context{Ctx: ctx}, rd.SessionID)
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("%w: invalid access token", errs.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: malformed subject claim", errs.ErrUnauthorized)
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return ctx, fmt.Errorf("%w: malformed session claim", errs.ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		SessionID:   sessionID,
	}), nil
}

func (s *authService) mintAccessToken(userID, sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        sessionID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
