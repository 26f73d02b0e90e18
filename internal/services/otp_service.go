package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/lucasmendel/arcadia/internal/auth"
	"github.com/lucasmendel/arcadia/internal/models"
	pkgauth "github.com/lucasmendel/arcadia/pkg/auth"
	pkglogger "github.com/lucasmendel/arcadia/pkg/logger"
)

// UserRepository defines the persistence operations the services need.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	SetOTP(ctx context.Context, id, codeHash string, purpose models.Purpose, expiresAt time.Time) error
	ConsumeOTP(ctx context.Context, email, codeHash string, purpose models.Purpose) (*models.User, error)
	FinalizeRegistration(ctx context.Context, id, name, passwordHash string) (*models.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	RecordLoginFailure(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error)
	RecordLoginSuccess(ctx context.Context, id string) error
	LinkGoogle(ctx context.Context, id, googleID string) error
	UpdateName(ctx context.Context, id, name string) (*models.User, error)
	SetTOTPSecret(ctx context.Context, id, secret string) error
	EnableTOTP(ctx context.Context, id string) error
	AddAchievement(ctx context.Context, id, tag string) error
}

// EmailService defines the interface for sending one-time codes.
type EmailService interface {
	SendOTPEmail(ctx context.Context, email, code string, purpose models.Purpose, expiresAt time.Time) error
}

// OTPService implements the one-time code lifecycle: issuance with
// per-purpose preconditions, atomic verification, registration finalization
// and password reset.
type OTPService struct {
	repo         UserRepository
	emailService EmailService
	tm           *auth.TokenManager
	logger       *slog.Logger
	auditLogger  *pkglogger.AuditLogger
	otpExpiry    time.Duration
}

// NewOTPService creates a new OTPService
func NewOTPService(
	repo UserRepository,
	emailService EmailService,
	tm *auth.TokenManager,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	otpExpiry time.Duration,
) *OTPService {
	return &OTPService{
		repo:         repo,
		emailService: emailService,
		tm:           tm,
		logger:       logger,
		auditLogger:  auditLogger,
		otpExpiry:    otpExpiry,
	}
}

// generateCode returns a 6-digit code uniform over [100000, 999999].
// crypto/rand.Int is rejection-sampled, so no value in the range is skipped
// or favored.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// hashCode is the deterministic digest stored in (and compared by) the
// database, so the compare-and-clear can happen in a single UPDATE.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// IssueOTP generates a code for the given purpose, installs it on the
// principal and emails it. Delivery is awaited: a user who believes a code
// was sent but wasn't cannot proceed, so send failures surface to the caller.
func (s *OTPService) IssueOTP(ctx context.Context, email string, purpose models.Purpose) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.ErrBadRequest
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user for otp issuance", slog.Any("error", err))
		return models.ErrInternalServer
	}

	switch purpose {
	case models.PurposeRegister:
		if user != nil && user.EmailVerified {
			s.logger.Info("otp issuance rejected: already registered",
				slog.String("email", pkglogger.SanitizedEmail(email)))
			return models.ErrConflict
		}
		if user == nil {
			// Eager unverified placeholder; the cleanup sweep removes it if
			// registration is abandoned.
			user, err = s.repo.Create(ctx, &models.User{Email: email})
			if err != nil {
				if errors.Is(err, models.ErrConflict) {
					return models.ErrConflict
				}
				s.logger.Error("failed to create registration placeholder", slog.Any("error", err))
				return models.ErrInternalServer
			}
		}
	case models.PurposeLoginVerification:
		if user == nil {
			return models.ErrNotFound
		}
		if user.EmailVerified {
			return models.ErrAlreadyVerified
		}
	case models.PurposeForgotPassword:
		if user == nil {
			return models.ErrNotFound
		}
		if !user.EmailVerified {
			return models.ErrNotVerified
		}
	default:
		return models.ErrBadRequest
	}

	code, err := generateCode()
	if err != nil {
		s.logger.Error("failed to generate otp code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.otpExpiry)

	// One atomic UPDATE: a concurrent resend cannot leave a stale code.
	if err := s.repo.SetOTP(ctx, user.ID, hashCode(code), purpose, expiresAt); err != nil {
		s.logger.Error("failed to store otp code",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.emailService.SendOTPEmail(ctx, email, code, purpose, expiresAt); err != nil {
		s.logger.Error("failed to send otp email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return models.ErrDeliveryFailed
	}

	s.logger.Info("otp issued",
		slog.String("user_id", user.ID),
		slog.String("purpose", string(purpose)))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "otp_issued",
		UserID:    user.ID,
		Purpose:   string(purpose),
		Success:   true,
	})

	return nil
}

// consumeOTP looks up the principal and performs the atomic compare-and-clear.
// NotFound means no such principal; any code/purpose/expiry mismatch is the
// uniform ErrOTPInvalid.
func (s *OTPService) consumeOTP(ctx context.Context, email, code string, purpose models.Purpose) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	if _, err := s.repo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to look up user for otp verification", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.ConsumeOTP(ctx, email, hashCode(code), purpose)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "otp_rejected",
				Purpose:       string(purpose),
				FailureReason: "invalid_or_expired",
				Success:       false,
			})
			return nil, models.ErrOTPInvalid
		}
		s.logger.Error("failed to consume otp", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// VerifyRegistration consumes a register-purpose code and finalizes the
// account. The code is consumed the moment it validates; if the finalization
// data then fails validation the caller must request a fresh code. That
// ordering keeps the compare-and-clear atomic, which is what prevents two
// concurrent attempts from both succeeding.
func (s *OTPService) VerifyRegistration(ctx context.Context, email, code, name, password string) (*AuthResponse, error) {
	user, err := s.consumeOTP(ctx, email, code, models.PurposeRegister)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	finalized, err := s.repo.FinalizeRegistration(ctx, user.ID, name, hashedPassword)
	if err != nil {
		s.logger.Error("failed to finalize registration",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tm.GenerateToken(finalized.ID, finalized.Email, finalized.Name)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", finalized.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("registration completed", slog.String("user_id", finalized.ID))
	s.auditLogger.LogAccountAction("user_registered", finalized.ID, "", nil)

	return &AuthResponse{
		Token: token,
		User:  userModelToResponse(finalized),
	}, nil
}

// VerifyLogin consumes a login-verification code and issues a session token.
func (s *OTPService) VerifyLogin(ctx context.Context, email, code string) (*AuthResponse, error) {
	user, err := s.consumeOTP(ctx, email, code, models.PurposeLoginVerification)
	if err != nil {
		return nil, err
	}

	token, err := s.tm.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.RecordLoginSuccess(ctx, user.ID); err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "otp_login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return &AuthResponse{
		Token: token,
		User:  userModelToResponse(user),
	}, nil
}

// ResetPassword consumes a forgot-password code and rotates the password.
// No session token is issued; the user logs in with the new password.
func (s *OTPService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.consumeOTP(ctx, email, code, models.PurposeForgotPassword)
	if err != nil {
		return err
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.SetPassword(ctx, user.ID, hashedPassword); err != nil {
		s.logger.Error("failed to rotate password",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset completed", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("password_reset", user.ID, "", nil)

	return nil
}
