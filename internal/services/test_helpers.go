package services

import (
	"context"
	"time"

	"github.com/lucasmendel/arcadia/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc              func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc           func(ctx context.Context, email string) (*models.User, error)
	GetByGoogleIDFunc        func(ctx context.Context, googleID string) (*models.User, error)
	CreateFunc               func(ctx context.Context, user *models.User) (*models.User, error)
	SetOTPFunc               func(ctx context.Context, id, codeHash string, purpose models.Purpose, expiresAt time.Time) error
	ConsumeOTPFunc           func(ctx context.Context, email, codeHash string, purpose models.Purpose) (*models.User, error)
	FinalizeRegistrationFunc func(ctx context.Context, id, name, passwordHash string) (*models.User, error)
	SetPasswordFunc          func(ctx context.Context, id, passwordHash string) error
	RecordLoginFailureFunc   func(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error)
	RecordLoginSuccessFunc   func(ctx context.Context, id string) error
	LinkGoogleFunc           func(ctx context.Context, id, googleID string) error
	UpdateNameFunc           func(ctx context.Context, id, name string) (*models.User, error)
	SetTOTPSecretFunc        func(ctx context.Context, id, secret string) error
	EnableTOTPFunc           func(ctx context.Context, id string) error
	AddAchievementFunc       func(ctx context.Context, id, tag string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	if m.GetByGoogleIDFunc != nil {
		return m.GetByGoogleIDFunc(ctx, googleID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetOTP(ctx context.Context, id, codeHash string, purpose models.Purpose, expiresAt time.Time) error {
	if m.SetOTPFunc != nil {
		return m.SetOTPFunc(ctx, id, codeHash, purpose, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ConsumeOTP(ctx context.Context, email, codeHash string, purpose models.Purpose) (*models.User, error) {
	if m.ConsumeOTPFunc != nil {
		return m.ConsumeOTPFunc(ctx, email, codeHash, purpose)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) FinalizeRegistration(ctx context.Context, id, name, passwordHash string) (*models.User, error) {
	if m.FinalizeRegistrationFunc != nil {
		return m.FinalizeRegistrationFunc(ctx, id, name, passwordHash)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	if m.SetPasswordFunc != nil {
		return m.SetPasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) RecordLoginFailure(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error) {
	if m.RecordLoginFailureFunc != nil {
		return m.RecordLoginFailureFunc(ctx, id, maxFails, lockout)
	}
	return 1, nil, nil
}

func (m *MockUserRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	if m.RecordLoginSuccessFunc != nil {
		return m.RecordLoginSuccessFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) LinkGoogle(ctx context.Context, id, googleID string) error {
	if m.LinkGoogleFunc != nil {
		return m.LinkGoogleFunc(ctx, id, googleID)
	}
	return nil
}

func (m *MockUserRepository) UpdateName(ctx context.Context, id, name string) (*models.User, error) {
	if m.UpdateNameFunc != nil {
		return m.UpdateNameFunc(ctx, id, name)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetTOTPSecret(ctx context.Context, id, secret string) error {
	if m.SetTOTPSecretFunc != nil {
		return m.SetTOTPSecretFunc(ctx, id, secret)
	}
	return nil
}

func (m *MockUserRepository) EnableTOTP(ctx context.Context, id string) error {
	if m.EnableTOTPFunc != nil {
		return m.EnableTOTPFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) AddAchievement(ctx context.Context, id, tag string) error {
	if m.AddAchievementFunc != nil {
		return m.AddAchievementFunc(ctx, id, tag)
	}
	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendOTPEmailFunc func(ctx context.Context, email, code string, purpose models.Purpose, expiresAt time.Time) error
}

func (m *MockEmailService) SendOTPEmail(ctx context.Context, email, code string, purpose models.Purpose, expiresAt time.Time) error {
	if m.SendOTPEmailFunc != nil {
		return m.SendOTPEmailFunc(ctx, email, code, purpose, expiresAt)
	}
	return nil
}

// MockStatsRepository implements StatsRepository for testing
type MockStatsRepository struct {
	RecordPlayFunc  func(ctx context.Context, userID, game string, score int) (*models.GameStat, error)
	ListByUserFunc  func(ctx context.Context, userID string) ([]*models.GameStat, error)
	LeaderboardFunc func(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error)
}

func (m *MockStatsRepository) RecordPlay(ctx context.Context, userID, game string, score int) (*models.GameStat, error) {
	if m.RecordPlayFunc != nil {
		return m.RecordPlayFunc(ctx, userID, game, score)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStatsRepository) ListByUser(ctx context.Context, userID string) ([]*models.GameStat, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.GameStat{}, nil
}

func (m *MockStatsRepository) Leaderboard(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, game, limit)
	}
	return []*models.LeaderboardEntry{}, nil
}

// NewTestUser creates a verified user with sensible defaults for tests
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:            id,
		Email:         email,
		Name:          name,
		EmailVerified: true,
		Achievements:  []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
