package logger

import (
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@e***.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	domainParts := strings.SplitN(domain, ".", 2)
	if len(domainParts[0]) > 1 {
		domainParts[0] = string(domainParts[0][0]) + strings.Repeat("*", len(domainParts[0])-1)
	}

	return username + "@" + strings.Join(domainParts, ".")
}

// sensitiveParams are query parameters that must never reach the request log.
var sensitiveParams = []string{"token", "code", "password", "secret", "otp"}

// SanitizeQueryString reports whether the raw query contains a sensitive
// parameter and should be redacted wholesale.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}
	lowered := strings.ToLower(rawQuery)
	for _, p := range sensitiveParams {
		if strings.Contains(lowered, p+"=") {
			return true
		}
	}
	return false
}
