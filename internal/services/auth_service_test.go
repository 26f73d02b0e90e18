package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasmendel/arcadia/internal/auth"
	"github.com/lucasmendel/arcadia/internal/models"
	pkgauth "github.com/lucasmendel/arcadia/pkg/auth"
	pkglogger "github.com/lucasmendel/arcadia/pkg/logger"
)

const testGoogleClientID = "test-client-id.apps.googleusercontent.com"

func newTestAuthService(repo *MockUserRepository) *AuthService {
	logger := slog.Default()
	auditLogger := pkglogger.NewAuditLogger(logger)
	tm := auth.NewTokenManager("test-secret-key-1234567890abcdef", 1*time.Hour)
	totpManager := auth.NewTOTPManager("Arcadia Test")
	googleVerifier := auth.NewGoogleVerifier(testGoogleClientID)
	return NewAuthService(repo, tm, totpManager, googleVerifier, logger, auditLogger, 5, 2*time.Hour)
}

// makeGoogleToken builds an ID token with the given claims. The verifier only
// inspects claims, so the signing key is irrelevant.
func makeGoogleToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("unused"))
	require.NoError(t, err)
	return signed
}

func googleClaims(sub, email string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testGoogleClientID,
		"sub":            sub,
		"email":          email,
		"email_verified": true,
		"name":           "Google User",
		"exp":            time.Now().Add(1 * time.Hour).Unix(),
	}
}

// ============================================================================
// Login Tests
// ============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash

	loginRecorded := false
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "user@example.com", email)
			return user, nil
		},
		RecordLoginSuccessFunc: func(ctx context.Context, id string) error {
			loginRecorded = true
			return nil
		},
	}

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "User@Example.com", "SecurePassword123!", "")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user123", resp.User.ID)
	assert.True(t, loginRecorded)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{})

	resp, err := svc.Login(context.Background(), "ghost@example.com", "SecurePassword123!", "")

	// Indistinguishable from a wrong password.
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash

	failureRecorded := false
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordLoginFailureFunc: func(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error) {
			failureRecorded = true
			assert.Equal(t, 5, maxFails)
			assert.Equal(t, 2*time.Hour, lockout)
			return 1, nil, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "user@example.com", "WrongPassword1!", "")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
	assert.True(t, failureRecorded)
}

func TestAuthService_Login_FifthFailureArmsLock(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordLoginFailureFunc: func(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error) {
			lockedUntil := time.Now().Add(lockout)
			return 5, &lockedUntil, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "user@example.com", "WrongPassword1!", "")

	assert.ErrorIs(t, err, models.ErrLocked)
	assert.Nil(t, resp)
}

func TestAuthService_Login_LockedAccountRejectedBeforePasswordCheck(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	lockedUntil := time.Now().Add(1 * time.Hour)
	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash
	user.LockedUntil = &lockedUntil

	failureRecorded := false
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordLoginFailureFunc: func(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error) {
			failureRecorded = true
			return 0, nil, nil
		},
	}

	svc := newTestAuthService(mockRepo)

	// Even the correct password is rejected while the lock holds.
	resp, err := svc.Login(context.Background(), "user@example.com", "SecurePassword123!", "")

	assert.ErrorIs(t, err, models.ErrLocked)
	assert.Nil(t, resp)
	assert.False(t, failureRecorded)
}

func TestAuthService_Login_ExpiredLockAdmitsUser(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	expired := time.Now().Add(-1 * time.Minute)
	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash
	user.FailedLoginAttempts = 5
	user.LockedUntil = &expired

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "user@example.com", "SecurePassword123!", "")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_Login_ExpiredLockFailureStartsFreshBudget(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	expired := time.Now().Add(-1 * time.Minute)
	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash
	user.FailedLoginAttempts = 5
	user.LockedUntil = &expired

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordLoginFailureFunc: func(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error) {
			// The lapsed lock restarts the counter at one.
			return 1, nil, nil
		},
	}

	svc := newTestAuthService(mockRepo)

	// A wrong password after the lock lapses is one failure out of five,
	// not an instant re-lock.
	resp, err := svc.Login(context.Background(), "user@example.com", "WrongPassword1!", "")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_Login_UnverifiedEmailBlocked(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash
	user.EmailVerified = false

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "user@example.com", "SecurePassword123!", "")

	assert.ErrorIs(t, err, models.ErrEmailNotVerified)
	assert.Nil(t, resp)
}

func TestAuthService_Login_GoogleOnlyAccountHasNoPassword(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "User")
	user.GoogleID = "google-sub-1"

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "user@example.com", "AnyPassword123!", "")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_Login_TOTPRequired(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash
	user.TOTPEnabled = true
	user.TOTPSecret = "JBSWY3DPEHPK3PXP"

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "user@example.com", "SecurePassword123!", "")

	assert.ErrorIs(t, err, models.ErrTOTPRequired)
	assert.Nil(t, resp)
}

func TestAuthService_Login_TOTPValidCode(t *testing.T) {
	hash, err := pkgauth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	secret := "JBSWY3DPEHPK3PXP"
	user := NewTestUser("user123", "user@example.com", "User")
	user.PasswordHash = hash
	user.TOTPEnabled = true
	user.TOTPSecret = secret

	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	svc := newTestAuthService(mockRepo)
	resp, err := svc.Login(context.Background(), "user@example.com", "SecurePassword123!", code)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

// ============================================================================
// GoogleLogin Tests
// ============================================================================

func TestAuthService_GoogleLogin_CreatesVerifiedUser(t *testing.T) {
	var created *models.User

	mockRepo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			user.ID = "user123"
			user.CreatedAt = time.Now()
			return user, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	idToken := makeGoogleToken(t, googleClaims("google-sub-1", "new@example.com"))

	resp, err := svc.GoogleLogin(context.Background(), idToken)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, "google-sub-1", created.GoogleID)
	assert.True(t, created.EmailVerified)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_GoogleLogin_LinksExistingAccount(t *testing.T) {
	existing := NewTestUser("user123", "user@example.com", "User")

	var linkedGoogleID string
	mockRepo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return existing, nil
		},
		LinkGoogleFunc: func(ctx context.Context, id, googleID string) error {
			assert.Equal(t, "user123", id)
			linkedGoogleID = googleID
			return nil
		},
	}

	svc := newTestAuthService(mockRepo)
	idToken := makeGoogleToken(t, googleClaims("google-sub-1", "user@example.com"))

	resp, err := svc.GoogleLogin(context.Background(), idToken)

	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", linkedGoogleID)
	assert.Equal(t, "user123", resp.User.ID)
}

func TestAuthService_GoogleLogin_ReturningUser(t *testing.T) {
	existing := NewTestUser("user123", "user@example.com", "User")
	existing.GoogleID = "google-sub-1"

	mockRepo := &MockUserRepository{
		GetByGoogleIDFunc: func(ctx context.Context, googleID string) (*models.User, error) {
			assert.Equal(t, "google-sub-1", googleID)
			return existing, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	idToken := makeGoogleToken(t, googleClaims("google-sub-1", "user@example.com"))

	resp, err := svc.GoogleLogin(context.Background(), idToken)

	require.NoError(t, err)
	assert.Equal(t, "user123", resp.User.ID)
}

func TestAuthService_GoogleLogin_RejectsBadIssuer(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{})

	claims := googleClaims("google-sub-1", "user@example.com")
	claims["iss"] = "https://evil.example.com"
	idToken := makeGoogleToken(t, claims)

	resp, err := svc.GoogleLogin(context.Background(), idToken)

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_GoogleLogin_RejectsWrongAudience(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{})

	claims := googleClaims("google-sub-1", "user@example.com")
	claims["aud"] = "someone-else.apps.googleusercontent.com"
	idToken := makeGoogleToken(t, claims)

	resp, err := svc.GoogleLogin(context.Background(), idToken)

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

func TestAuthService_GoogleLogin_RejectsUnverifiedProviderEmail(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{})

	claims := googleClaims("google-sub-1", "user@example.com")
	claims["email_verified"] = false
	idToken := makeGoogleToken(t, claims)

	resp, err := svc.GoogleLogin(context.Background(), idToken)

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
}

// ============================================================================
// TOTP Enrollment Tests
// ============================================================================

func TestAuthService_SetupTOTP_StoresSecret(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "User")

	var storedSecret string
	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		SetTOTPSecretFunc: func(ctx context.Context, id, secret string) error {
			storedSecret = secret
			return nil
		},
	}

	svc := newTestAuthService(mockRepo)
	setup, err := svc.SetupTOTP(context.Background(), "user123")

	require.NoError(t, err)
	assert.Equal(t, setup.Secret, storedSecret)
	assert.Contains(t, setup.URL, "otpauth://")
	assert.Contains(t, setup.QRDataURL, "data:image/png;base64,")
}

func TestAuthService_ActivateTOTP_ValidCode(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	user := NewTestUser("user123", "user@example.com", "User")
	user.TOTPSecret = secret

	enabled := false
	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		EnableTOTPFunc: func(ctx context.Context, id string) error {
			enabled = true
			return nil
		},
	}

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	svc := newTestAuthService(mockRepo)
	require.NoError(t, svc.ActivateTOTP(context.Background(), "user123", code))
	assert.True(t, enabled)
}

func TestAuthService_ActivateTOTP_NoPendingSecret(t *testing.T) {
	user := NewTestUser("user123", "user@example.com", "User")

	mockRepo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockRepo)
	err := svc.ActivateTOTP(context.Background(), "user123", "123456")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}
