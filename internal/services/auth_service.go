package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lucasmendel/arcadia/internal/auth"
	"github.com/lucasmendel/arcadia/internal/models"
	pkgauth "github.com/lucasmendel/arcadia/pkg/auth"
	pkglogger "github.com/lucasmendel/arcadia/pkg/logger"
)

// AuthService handles password and Google authentication.
type AuthService struct {
	repo          UserRepository
	tm            *auth.TokenManager
	totp          *auth.TOTPManager
	google        *auth.GoogleVerifier
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
	maxLoginFails int
	lockoutWindow time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo UserRepository,
	tm *auth.TokenManager,
	totp *auth.TOTPManager,
	google *auth.GoogleVerifier,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	maxLoginFails int,
	lockoutWindow time.Duration,
) *AuthService {
	return &AuthService{
		repo:          repo,
		tm:            tm,
		totp:          totp,
		google:        google,
		logger:        logger,
		auditLogger:   auditLogger,
		maxLoginFails: maxLoginFails,
		lockoutWindow: lockoutWindow,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	EmailVerified bool       `json:"email_verified"`
	TOTPEnabled   bool       `json:"totp_enabled"`
	Achievements  []string   `json:"achievements"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     string     `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// Login authenticates a user by password and returns a session token.
// Lockout is checked before the password comparison so a locked account does
// no bcrypt work; a NotFound and a bad password both come back Unauthorized.
func (s *AuthService) Login(ctx context.Context, email, password, totpCode string) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.IsLocked() {
		s.logger.Info("login blocked: account locked", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, models.ErrLocked
	}

	// Registration must complete via OTP before the password path issues
	// tokens.
	if !user.EmailVerified {
		s.logger.Info("login blocked: email not verified", slog.String("user_id", user.ID))
		return nil, models.ErrEmailNotVerified
	}

	// Google-only accounts have no password to compare.
	if user.PasswordHash == "" {
		return nil, models.ErrUnauthorized
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		attempts, lockedUntil, recErr := s.repo.RecordLoginFailure(ctx, user.ID, s.maxLoginFails, s.lockoutWindow)
		if recErr != nil {
			s.logger.Error("failed to record login failure", slog.String("user_id", user.ID), slog.Any("error", recErr))
		}
		s.logger.Info("login failed: invalid credentials",
			slog.Int("failed_attempts", attempts))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		if lockedUntil != nil && time.Now().Before(*lockedUntil) && attempts >= s.maxLoginFails {
			return nil, models.ErrLocked
		}
		return nil, models.ErrUnauthorized
	}

	if user.TOTPEnabled {
		if totpCode == "" {
			return nil, models.ErrTOTPRequired
		}
		if !s.totp.Validate(totpCode, user.TOTPSecret) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				UserID:        user.ID,
				FailureReason: "invalid_totp",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
	}

	if err := s.repo.RecordLoginSuccess(ctx, user.ID); err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	token, err := s.tm.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return &AuthResponse{
		Token: token,
		User:  userModelToResponse(user),
	}, nil
}

// GoogleLogin validates a Google ID token and signs the user in, creating a
// pre-verified principal on first sight. The provider's email_verified
// attestation stands in for our own verified flag.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*AuthResponse, error) {
	claims, err := s.google.VerifyIDToken(idToken)
	if err != nil {
		s.logger.Info("google token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))

	user, err := s.repo.GetByGoogleID(ctx, claims.Subject)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up google identity", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user == nil {
		// Auto-link by email when the account already exists.
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up user by email", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		if existing != nil {
			if err := s.repo.LinkGoogle(ctx, existing.ID, claims.Subject); err != nil {
				s.logger.Error("failed to link google identity", slog.String("user_id", existing.ID), slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
			existing.GoogleID = claims.Subject
			existing.EmailVerified = true
			user = existing
		} else {
			user, err = s.repo.Create(ctx, &models.User{
				Email:         email,
				Name:          claims.Name,
				EmailVerified: true,
				GoogleID:      claims.Subject,
			})
			if err != nil {
				s.logger.Error("failed to create google user", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
			s.auditLogger.LogAccountAction("user_registered_google", user.ID, "", nil)
		}
	}

	if err := s.repo.RecordLoginSuccess(ctx, user.ID); err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	token, err := s.tm.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "google_login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return &AuthResponse{
		Token: token,
		User:  userModelToResponse(user),
	}, nil
}

// VerifyGoogleToken validates an ID token without signing anyone in. Used by
// the frontend to probe whether a Google credential is acceptable.
func (s *AuthService) VerifyGoogleToken(idToken string) (*auth.GoogleClaims, error) {
	claims, err := s.google.VerifyIDToken(idToken)
	if err != nil {
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}

// SetupTOTP generates a pending authenticator secret for the user.
func (s *AuthService) SetupTOTP(ctx context.Context, userID string) (*auth.TOTPSetup, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrInternalServer
	}

	setup, err := s.totp.GenerateSetup(user.Email)
	if err != nil {
		s.logger.Error("failed to generate totp setup", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.SetTOTPSecret(ctx, userID, setup.Secret); err != nil {
		s.logger.Error("failed to store totp secret", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return setup, nil
}

// ActivateTOTP enables the second factor once the user proves they enrolled
// the secret by submitting a valid code.
func (s *AuthService) ActivateTOTP(ctx context.Context, userID, code string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return models.ErrInternalServer
	}

	if user.TOTPSecret == "" {
		return models.ErrBadRequest
	}

	if !s.totp.Validate(code, user.TOTPSecret) {
		return models.ErrUnauthorized
	}

	if err := s.repo.EnableTOTP(ctx, userID); err != nil {
		s.logger.Error("failed to enable totp", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("totp_enabled", userID, "", nil)
	return nil
}

// userModelToResponse converts a user model to a response DTO.
func userModelToResponse(user *models.User) *UserResponse {
	achievements := user.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	return &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		EmailVerified: user.EmailVerified,
		TOTPEnabled:   user.TOTPEnabled,
		Achievements:  achievements,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
}
