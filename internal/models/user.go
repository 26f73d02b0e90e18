package models

import (
	"time"
)

// User is the principal record. All OTP and lockout material lives on this row
// so every lifecycle transition is a single atomic UPDATE.
type User struct {
	ID            string
	Email         string
	PasswordHash  string // empty for Google-only accounts
	Name          string
	EmailVerified bool
	GoogleID      string // Google subject id, empty unless linked

	// OTP slot: at most one outstanding code per principal.
	OTPCodeHash  string // sha256 hex of the 6-digit code
	OTPExpiresAt *time.Time
	OTPPurpose   string // one of the Purpose constants, empty when no code is set

	// Lockout material.
	FailedLoginAttempts int
	LockedUntil         *time.Time

	// Optional TOTP second factor.
	TOTPSecret  string // base32 secret, empty when not enrolled
	TOTPEnabled bool

	Achievements []string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLocked reports whether the lockout window is currently active.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// HasAchievement reports whether the tag has already been awarded.
func (u *User) HasAchievement(tag string) bool {
	for _, a := range u.Achievements {
		if a == tag {
			return true
		}
	}
	return false
}
