package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPManager_GenerateSetup(t *testing.T) {
	tm := NewTOTPManager("Arcadia Test")

	setup, err := tm.GenerateSetup("user@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URL, "otpauth://totp/")
	assert.Contains(t, setup.URL, "Arcadia")
	assert.Contains(t, setup.QRDataURL, "data:image/png;base64,")
}

func TestTOTPManager_Validate(t *testing.T) {
	tm := NewTOTPManager("Arcadia Test")

	setup, err := tm.GenerateSetup("user@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	assert.True(t, tm.Validate(code, setup.Secret))
	assert.False(t, tm.Validate("000000", setup.Secret))
}
