package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for structurally valid but unusable provider payloads.
// Both are treated as transient by the retry layer: an identical retry may
// produce a usable completion.
var (
	ErrEmptyResponse   = errors.New("model returned an empty response")
	ErrNonTextResponse = errors.New("model returned a non-text response")
)

// UnsupportedModelError reports a model identifier no registry rule matches.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model: %s", e.Model)
}

// ConfigurationError reports a resolved profile whose credential slot is
// empty. It is raised before any network I/O and never retried. The message
// names the environment variable, never its value.
type ConfigurationError struct {
	Model          string
	CredentialName string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("API key for %s is not configured (set %s)", e.Model, e.CredentialName)
}

// TransportError wraps a network failure, a non-2xx status, or a malformed
// envelope from a backend. Message carries the provider's own error text with
// credentials already absent (they are never placed in it).
type TransportError struct {
	Family  string
	Status  int
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request failed (HTTP %d): %s", e.Family, e.Status, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Family, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// retryable reports whether the retry loop may attempt the request again.
// Credential rejections are permanent: the key will not appear mid-request.
// Everything else (timeouts, 5xx, empty completions) is assumed transient.
func retryable(err error) bool {
	var unsupported *UnsupportedModelError
	var misconfigured *ConfigurationError
	if errors.As(err, &unsupported) || errors.As(err, &misconfigured) {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid_api_key") || strings.Contains(msg, "authentication") {
		return false
	}
	return true
}
