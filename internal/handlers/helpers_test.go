package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lucasmendel/arcadia/internal/auth"
	"github.com/lucasmendel/arcadia/internal/models"
	"github.com/lucasmendel/arcadia/internal/services"
)

// MockOTPService implements OTPServiceInterface for testing
type MockOTPService struct {
	IssueOTPFunc           func(ctx context.Context, email string, purpose models.Purpose) error
	VerifyRegistrationFunc func(ctx context.Context, email, code, name, password string) (*services.AuthResponse, error)
	VerifyLoginFunc        func(ctx context.Context, email, code string) (*services.AuthResponse, error)
	ResetPasswordFunc      func(ctx context.Context, email, code, newPassword string) error
}

func (m *MockOTPService) IssueOTP(ctx context.Context, email string, purpose models.Purpose) error {
	if m.IssueOTPFunc != nil {
		return m.IssueOTPFunc(ctx, email, purpose)
	}
	return nil
}

func (m *MockOTPService) VerifyRegistration(ctx context.Context, email, code, name, password string) (*services.AuthResponse, error) {
	if m.VerifyRegistrationFunc != nil {
		return m.VerifyRegistrationFunc(ctx, email, code, name, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockOTPService) VerifyLogin(ctx context.Context, email, code string) (*services.AuthResponse, error) {
	if m.VerifyLoginFunc != nil {
		return m.VerifyLoginFunc(ctx, email, code)
	}
	return nil, models.ErrInternalServer
}

func (m *MockOTPService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, code, newPassword)
	}
	return nil
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc             func(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error)
	GoogleLoginFunc       func(ctx context.Context, idToken string) (*services.AuthResponse, error)
	VerifyGoogleTokenFunc func(idToken string) (*auth.GoogleClaims, error)
	SetupTOTPFunc         func(ctx context.Context, userID string) (*auth.TOTPSetup, error)
	ActivateTOTPFunc      func(ctx context.Context, userID, code string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, totpCode)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) GoogleLogin(ctx context.Context, idToken string) (*services.AuthResponse, error) {
	if m.GoogleLoginFunc != nil {
		return m.GoogleLoginFunc(ctx, idToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) VerifyGoogleToken(idToken string) (*auth.GoogleClaims, error) {
	if m.VerifyGoogleTokenFunc != nil {
		return m.VerifyGoogleTokenFunc(idToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) SetupTOTP(ctx context.Context, userID string) (*auth.TOTPSetup, error) {
	if m.SetupTOTPFunc != nil {
		return m.SetupTOTPFunc(ctx, userID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) ActivateTOTP(ctx context.Context, userID, code string) error {
	if m.ActivateTOTPFunc != nil {
		return m.ActivateTOTPFunc(ctx, userID, code)
	}
	return nil
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetProfileFunc    func(ctx context.Context, userID string) (*services.UserResponse, error)
	UpdateProfileFunc func(ctx context.Context, userID, name string) (*services.UserResponse, error)
	RecordPlayFunc    func(ctx context.Context, userID, game string, score int) (*models.GameStat, error)
	GetStatsFunc      func(ctx context.Context, userID string) ([]*models.GameStat, error)
	LeaderboardFunc   func(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID, name string) (*services.UserResponse, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, name)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) RecordPlay(ctx context.Context, userID, game string, score int) (*models.GameStat, error) {
	if m.RecordPlayFunc != nil {
		return m.RecordPlayFunc(ctx, userID, game, score)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) GetStats(ctx context.Context, userID string) ([]*models.GameStat, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx, userID)
	}
	return []*models.GameStat{}, nil
}

func (m *MockUserService) Leaderboard(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, game, limit)
	}
	return []*models.LeaderboardEntry{}, nil
}

// newJSONRequest builds a request with a JSON body
func newJSONRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withClaims injects authenticated-user claims the way the auth middleware does
func withClaims(r *http.Request, userID string) *http.Request {
	claims := &models.TokenClaims{UserID: userID, Email: "user@example.com", Name: "User"}
	ctx := context.WithValue(r.Context(), auth.UserContextKey, claims)
	return r.WithContext(ctx)
}

// withURLParam injects a chi route parameter
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
