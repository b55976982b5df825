package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumenlearn/guidance-backend/internal/data/repos"
	types "github.com/lumenlearn/guidance-backend/internal/domain"
	"github.com/lumenlearn/guidance-backend/internal/onboarding"
	"github.com/lumenlearn/guidance-backend/internal/pkg/ctxutil"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
)

type testEnv struct {
	db          *gorm.DB
	factsRepo   repos.OnboardingFactsRepo
	attemptRepo repos.DiagnosticAttemptRepo
	onboarding  OnboardingService
	diagnostic  DiagnosticService
	practice    PracticeService
	auth        AuthService
	users       UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.UserOnboardingFacts{},
		&types.DiagnosticAttempt{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	factsRepo := repos.NewOnboardingFactsRepo(db, log)
	attemptRepo := repos.NewDiagnosticAttemptRepo(db, log)
	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	catalog := onboarding.Default()

	onboardingSvc := NewOnboardingService(db, log, catalog, factsRepo, attemptRepo)
	return &testEnv{
		db:          db,
		factsRepo:   factsRepo,
		attemptRepo: attemptRepo,
		onboarding:  onboardingSvc,
		diagnostic:  NewDiagnosticService(db, log, catalog, factsRepo, attemptRepo, onboardingSvc),
		practice:    NewPracticeService(db, log, onboardingSvc),
		auth:        NewAuthService(db, log, userRepo, tokenRepo, factsRepo, "test-secret", 15*time.Minute, 720*time.Hour),
		users:       NewUserService(db, log, userRepo),
	}
}

// newUser registers a user and returns an authenticated context for them.
func (e *testEnv) newUser(t *testing.T) (context.Context, uuid.UUID) {
	t.Helper()
	u, err := e.auth.Register(context.Background(),
		fmt.Sprintf("%s@example.com", uuid.NewString()), "s3cret-pass", "Test", "User")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:    u.ID,
		SessionID: uuid.New(),
	})
	return ctx, u.ID
}

func (e *testEnv) loadFacts(t *testing.T, userID uuid.UUID) *types.UserOnboardingFacts {
	t.Helper()
	facts, err := e.factsRepo.GetByUserID(dbctx.Context{Ctx: context.Background()}, userID)
	if err != nil {
		t.Fatalf("load facts: %v", err)
	}
	if facts == nil {
		t.Fatalf("no facts row for user %s", userID)
	}
	return facts
}

func (e *testEnv) saveFacts(t *testing.T, facts *types.UserOnboardingFacts) {
	t.Helper()
	if err := e.factsRepo.Save(dbctx.Context{Ctx: context.Background()}, facts); err != nil {
		t.Fatalf("save facts: %v", err)
	}
}
