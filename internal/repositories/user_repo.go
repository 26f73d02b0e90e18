package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucasmendel/arcadia/internal/database"
	"github.com/lucasmendel/arcadia/internal/models"
)

const userColumns = `id, email, password_hash, name, email_verified, google_id,
	otp_code_hash, otp_expires_at, otp_purpose,
	failed_login_attempts, locked_until,
	totp_secret, totp_enabled,
	achievements, last_login_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash, googleID, otpCodeHash, otpPurpose, totpSecret *string
	var otpExpiresAt, lockedUntil, lastLoginAt *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &passwordHash, &user.Name, &user.EmailVerified, &googleID,
		&otpCodeHash, &otpExpiresAt, &otpPurpose,
		&user.FailedLoginAttempts, &lockedUntil,
		&totpSecret, &user.TOTPEnabled,
		&user.Achievements, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if googleID != nil {
		user.GoogleID = *googleID
	}
	if otpCodeHash != nil {
		user.OTPCodeHash = *otpCodeHash
	}
	if otpPurpose != nil {
		user.OTPPurpose = *otpPurpose
	}
	if totpSecret != nil {
		user.TOTPSecret = *totpSecret
	}
	user.OTPExpiresAt = otpExpiresAt
	user.LockedUntil = lockedUntil
	user.LastLoginAt = lastLoginAt

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail folds case on both sides, matching the unique index on
// LOWER(email), so lookups hold regardless of caller normalization.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, googleID))
}

// Create inserts a new principal. The unique index on email is the uniqueness
// guarantee; a duplicate surfaces as models.ErrConflict via MapPostgresError.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Achievements == nil {
		user.Achievements = []string{}
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, email_verified, google_id, achievements, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	var passwordHash, googleID *string
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}
	if user.GoogleID != "" {
		googleID = &user.GoogleID
	}

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, passwordHash, user.Name,
		user.EmailVerified, googleID, user.Achievements, user.LastLoginAt,
		user.CreatedAt, user.UpdatedAt,
	))
}

// SetOTP installs a fresh code in the principal's single OTP slot with one
// atomic UPDATE. Any previously outstanding code is overwritten, which is
// what makes resends invalidate earlier codes.
func (r *UserRepository) SetOTP(ctx context.Context, id, codeHash string, purpose models.Purpose, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET otp_code_hash = $1, otp_expires_at = $2, otp_purpose = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query, codeHash, expiresAt, string(purpose), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ConsumeOTP is the atomic compare-and-clear: the code hash, purpose and
// expiry are checked and the slot nulled out in a single conditional UPDATE,
// so two concurrent verification attempts can never both succeed on one code.
// Returns ErrNotFound when nothing matched (wrong code, wrong purpose,
// expired, or no code set).
func (r *UserRepository) ConsumeOTP(ctx context.Context, email, codeHash string, purpose models.Purpose) (*models.User, error) {
	query := `
		UPDATE users
		SET otp_code_hash = NULL, otp_expires_at = NULL, otp_purpose = NULL, updated_at = NOW()
		WHERE LOWER(email) = LOWER($1)
		  AND otp_code_hash = $2
		  AND otp_purpose = $3
		  AND otp_expires_at > NOW()
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, email, codeHash, string(purpose)))
}

// FinalizeRegistration sets the display name and password hash and raises
// the verified flag in one statement.
func (r *UserRepository) FinalizeRegistration(ctx context.Context, id, name, passwordHash string) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $1, password_hash = $2, email_verified = TRUE, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, name, passwordHash, id))
}

// SetPassword rotates the password hash and clears any lockout state.
func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RecordLoginFailure increments the failure counter and, when the threshold
// is reached, arms the lockout window, all in the same UPDATE as required
// for concurrent failed attempts to count correctly. A lapsed lock grants a
// fresh budget: the counter restarts at one and the stale lock is cleared
// instead of the old run immediately re-arming. Returns the new counter
// value and lock expiry.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, maxFails int, lockout time.Duration) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = CASE
		        WHEN locked_until IS NOT NULL AND locked_until <= NOW() THEN 1
		        ELSE failed_login_attempts + 1
		    END,
		    locked_until = CASE
		        WHEN (CASE
		            WHEN locked_until IS NOT NULL AND locked_until <= NOW() THEN 1
		            ELSE failed_login_attempts + 1
		        END) >= $2 THEN NOW() + $3::interval
		        WHEN locked_until IS NOT NULL AND locked_until <= NOW() THEN NULL
		        ELSE locked_until
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until
	`

	interval := fmt.Sprintf("%d seconds", int(lockout.Seconds()))

	var attempts int
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx, query, id, maxFails, interval).Scan(&attempts, &lockedUntil)
	if err != nil {
		return 0, nil, database.MapPostgresError(err)
	}

	return attempts, lockedUntil, nil
}

// RecordLoginSuccess resets the failure counter and stamps last_login_at.
func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, last_login_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// LinkGoogle attaches a Google subject id to an existing principal and marks
// the email verified, since the provider attests it.
func (r *UserRepository) LinkGoogle(ctx context.Context, id, googleID string) error {
	query := `
		UPDATE users
		SET google_id = $1, email_verified = TRUE, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, googleID, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdateName changes the display name.
func (r *UserRepository) UpdateName(ctx context.Context, id, name string) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, name, id))
}

// SetTOTPSecret stores a pending authenticator secret (not yet enabled).
func (r *UserRepository) SetTOTPSecret(ctx context.Context, id, secret string) error {
	query := `
		UPDATE users
		SET totp_secret = $1, totp_enabled = FALSE, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, secret, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// EnableTOTP flips the second factor on once a setup code verified.
func (r *UserRepository) EnableTOTP(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET totp_enabled = TRUE, updated_at = NOW()
		WHERE id = $1 AND totp_secret IS NOT NULL
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// AddAchievement appends a tag unless already awarded.
func (r *UserRepository) AddAchievement(ctx context.Context, id, tag string) error {
	query := `
		UPDATE users
		SET achievements = array_append(achievements, $1), updated_at = NOW()
		WHERE id = $2 AND NOT ($1 = ANY(achievements))
	`

	_, err := r.pool.Exec(ctx, query, tag, id)
	return database.MapPostgresError(err)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteUnverifiedBefore removes abandoned registration placeholders:
// unverified principals with no linked Google identity created before cutoff.
func (r *UserRepository) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM users
		WHERE email_verified = FALSE AND google_id IS NULL AND created_at < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup unverified users: %w", err)
	}

	return result.RowsAffected(), nil
}
