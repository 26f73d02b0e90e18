package models

import "fmt"

// Purpose identifies why an OTP was issued. The stored purpose must match at
// verification time; a code issued for one purpose never verifies for another.
type Purpose string

const (
	PurposeRegister          Purpose = "register"
	PurposeLoginVerification Purpose = "login_verification"
	PurposeForgotPassword    Purpose = "forgot_password"
)

// ParsePurpose validates a wire-format purpose string.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case PurposeRegister, PurposeLoginVerification, PurposeForgotPassword:
		return Purpose(s), nil
	}
	return "", fmt.Errorf("unknown otp purpose: %q", s)
}
