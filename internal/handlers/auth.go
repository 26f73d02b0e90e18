package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lucasmendel/arcadia/internal/auth"
	"github.com/lucasmendel/arcadia/internal/models"
	"github.com/lucasmendel/arcadia/internal/services"
	pkgauth "github.com/lucasmendel/arcadia/pkg/auth"
	pkghttp "github.com/lucasmendel/arcadia/pkg/http"
)

// OTPServiceInterface defines the interface for the OTP lifecycle
type OTPServiceInterface interface {
	IssueOTP(ctx context.Context, email string, purpose models.Purpose) error
	VerifyRegistration(ctx context.Context, email, code, name, password string) (*services.AuthResponse, error)
	VerifyLogin(ctx context.Context, email, code string) (*services.AuthResponse, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// AuthServiceInterface defines the interface for password and Google auth
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, totpCode string) (*services.AuthResponse, error)
	GoogleLogin(ctx context.Context, idToken string) (*services.AuthResponse, error)
	VerifyGoogleToken(idToken string) (*auth.GoogleClaims, error)
	SetupTOTP(ctx context.Context, userID string) (*auth.TOTPSetup, error)
	ActivateTOTP(ctx context.Context, userID, code string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	otpService  OTPServiceInterface
	authService AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(otpService OTPServiceInterface, authService AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		otpService:  otpService,
		authService: authService,
	}
}

// Request DTOs

// SendOTPRequest represents the request body for OTP issuance
type SendOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required,oneof=register login_verification forgot_password"`
}

// VerifyOTPRequest represents the request body for OTP verification.
// Name and Password are required only for purpose=register.
type VerifyOTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6"`
	Purpose  string `json:"purpose" validate:"required,oneof=register login_verification"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
}

// LoginRequest represents the request body for password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// ResetPasswordRequest represents the request body for password reset
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required"`
}

// GoogleTokenRequest carries a Google-issued ID token
type GoogleTokenRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// ActivateTOTPRequest represents the request body for enabling TOTP
type ActivateTOTPRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// SendOTP handles OTP issuance for all three purposes.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	purpose, err := models.ParsePurpose(req.Purpose)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid purpose")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.otpService.IssueOTP(r.Context(), req.Email, purpose); err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "A verification code has been sent to your email.")
}

// VerifyOTP handles code verification for registration and login
// verification. Registration additionally finalizes the account.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var authResp *services.AuthResponse
	var err error

	switch models.Purpose(req.Purpose) {
	case models.PurposeRegister:
		authResp, err = h.otpService.VerifyRegistration(r.Context(), req.Email, req.Code, req.Name, req.Password)
	case models.PurposeLoginVerification:
		authResp, err = h.otpService.VerifyLogin(r.Context(), req.Email, req.Code)
	default:
		pkghttp.WriteBadRequest(w, "Invalid purpose")
		return
	}

	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		*services.AuthResponse
	}{
		Envelope:     pkghttp.Envelope{Success: true, Message: "Verification successful."},
		AuthResponse: authResp,
	})
}

// Login handles password login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	authResp, err := h.authService.Login(r.Context(), req.Email, req.Password, req.TOTPCode)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		*services.AuthResponse
	}{
		Envelope:     pkghttp.Envelope{Success: true, Message: "Login successful."},
		AuthResponse: authResp,
	})
}

// ResetPassword consumes a forgot-password code and rotates the password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.otpService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Password updated. Please log in with your new password.")
}

// GoogleVerify validates a Google ID token without signing the caller in.
func (h *AuthHandler) GoogleVerify(w http.ResponseWriter, r *http.Request) {
	var req GoogleTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	claims, err := h.authService.VerifyGoogleToken(req.IDToken)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Invalid Google credential")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture,omitempty"`
	}{
		Envelope: pkghttp.Envelope{Success: true, Message: "Google credential verified."},
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	})
}

// GoogleLogin signs a user in with a Google ID token, creating a
// pre-verified account on first sight.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.authService.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		*services.AuthResponse
	}{
		Envelope:     pkghttp.Envelope{Success: true, Message: "Login successful."},
		AuthResponse: authResp,
	})
}

// Logout is stateless: the client discards its token. The endpoint exists so
// the frontend has a uniform call shape.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Logged out.")
}

// SetupTOTP starts authenticator enrollment for the caller.
func (h *AuthHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	setup, err := h.authService.SetupTOTP(r.Context(), claims.UserID)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		pkghttp.Envelope
		Secret    string `json:"secret"`
		URL       string `json:"url"`
		QRDataURL string `json:"qr_data_url"`
	}{
		Envelope:  pkghttp.Envelope{Success: true, Message: "Scan the QR code with your authenticator app."},
		Secret:    setup.Secret,
		URL:       setup.URL,
		QRDataURL: setup.QRDataURL,
	})
}

// ActivateTOTP enables the second factor after a valid setup code.
func (h *AuthHandler) ActivateTOTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ActivateTOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.authService.ActivateTOTP(r.Context(), claims.UserID, req.Code); err != nil {
		writeAuthError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Two-factor authentication enabled.")
}

// writeAuthError maps service errors onto the HTTP error taxonomy.
func writeAuthError(w http.ResponseWriter, err error) {
	var pwErr *pkgauth.PasswordValidationError

	switch {
	case errors.As(err, &pwErr):
		pkghttp.WriteBadRequest(w, pwErr.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "No account found for this email")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "An account with this email already exists. Please log in instead.")
	case errors.Is(err, models.ErrAlreadyVerified):
		pkghttp.WriteBadRequest(w, "This email is already verified")
	case errors.Is(err, models.ErrNotVerified):
		pkghttp.WriteBadRequest(w, "This email has not been verified yet")
	case errors.Is(err, models.ErrOTPInvalid):
		pkghttp.WriteUnauthorized(w, "Invalid or expired code")
	case errors.Is(err, models.ErrEmailNotVerified):
		pkghttp.WriteForbidden(w, "Please verify your email before logging in")
	case errors.Is(err, models.ErrLocked):
		pkghttp.WriteLocked(w, "Account temporarily locked due to repeated failures. Try again later.")
	case errors.Is(err, models.ErrTOTPRequired):
		pkghttp.WriteError(w, http.StatusUnauthorized, "totp_required", "Authenticator code required")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, models.ErrDeliveryFailed):
		pkghttp.WriteInternalError(w, "Failed to send the email. Please try again.")
	case errors.Is(err, models.ErrInternalServer):
		pkghttp.WriteInternalError(w, "Internal server error")
	default:
		// Finalization data errors (e.g. missing name) surface as 400.
		pkghttp.WriteBadRequest(w, err.Error())
	}
}
