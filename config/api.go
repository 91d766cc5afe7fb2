package config

import (
	"strings"
	"time"
)

const (
	defaultAPIBaseURL       = "http://localhost:8080"
	defaultAPITimeout       = 30 * time.Second
	defaultErrorMessageExpr = "error || message"
)

// APIConfig describes the remote clinic API all gateway calls are relative to.
type APIConfig struct {
	// BaseURL is the fixed origin of the remote API.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`

	// Timeout bounds a single request round-trip at the transport level.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// UserAgent is sent on every request.
	UserAgent string `env:"API_USER_AGENT" envDefault:"medplus-client"`

	// ErrorMessageExpr is a JMESPath expression extracting a human readable
	// message from an error payload.
	ErrorMessageExpr string `env:"API_ERROR_MESSAGE_EXPR" envDefault:"error || message"`

	// ValidationErrorsExpr is a JMESPath expression selecting the field -> message
	// object of a rejected form submission.
	ValidationErrorsExpr string `env:"API_VALIDATION_ERRORS_EXPR" envDefault:"validationErrors"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.BaseURL == "" {
		a.BaseURL = defaultAPIBaseURL
	}
	if a.Timeout <= 0 {
		a.Timeout = defaultAPITimeout
	}
	a.ErrorMessageExpr = strings.TrimSpace(a.ErrorMessageExpr)
	if a.ErrorMessageExpr == "" {
		a.ErrorMessageExpr = defaultErrorMessageExpr
	}
	a.ValidationErrorsExpr = strings.TrimSpace(a.ValidationErrorsExpr)
}
