package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// stateBytes is the entropy of the anti-forgery state (256 bits).
const stateBytes = 32

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// redirectTargetFrom accepts only same-origin paths. Callers wiring Login
// straight to an event or decoded request body pass whatever they got; those
// values are not destinations.
func redirectTargetFrom(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, isLocalPath(s)
}

// isLocalPath reports whether s is an absolute path on this origin. "//host"
// and "/\host" are rejected because browsers resolve both off-site.
func isLocalPath(s string) bool {
	if !strings.HasPrefix(s, "/") {
		return false
	}
	if len(s) > 1 && (s[1] == '/' || s[1] == '\\') {
		return false
	}

	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.User == nil
}

// tokenPrefix returns a short prefix safe to log.
func tokenPrefix(token string) string {
	return token[:min(8, len(token))]
}

// Helper function to format validation errors
func formatValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, fieldError := range validationErrors {
			switch fieldError.Tag() {
			case "required":
				errorMessages = append(errorMessages, fmt.Sprintf("%s is required", fieldError.Field()))
			case "email":
				errorMessages = append(errorMessages, fmt.Sprintf("%s must be a valid email address", fieldError.Field()))
			case "url":
				errorMessages = append(errorMessages, fmt.Sprintf("%s must be a valid URL", fieldError.Field()))
			default:
				errorMessages = append(errorMessages, fmt.Sprintf("%s is invalid", fieldError.Field()))
			}
		}
		return strings.Join(errorMessages, "; ")
	}
	return err.Error()
}
