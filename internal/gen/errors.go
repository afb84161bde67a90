package gen

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ConfigurationError reports a missing credential or required configuration
// value. It is never retried and surfaces before any network attempt.
type ConfigurationError struct {
	// Key is the named lookup key that could not be resolved.
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is not set", e.Key)
}

// ValidationError reports a canonical value that is absent or cannot be
// coerced to the upstream's expected type.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", e.Field, e.Reason)
}

// TransportError reports that an outbound call itself failed. Retrying is
// the caller's responsibility.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderError reports a non-success response or an embedded upstream error
// code. It carries the raw payload for diagnosis and is never silently
// swallowed.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	// Quota is set by the adapter when its upstream signaled quota or
	// balance exhaustion.
	Quota bool
	Raw   json.RawMessage
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: upstream error %s: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: upstream error: %s", e.Provider, e.Message)
}

// ExtractionError reports a response that parsed successfully but lacked a
// required field, such as a task identifier or the video URL of a completed
// task. The raw response is embedded for diagnosis.
type ExtractionError struct {
	Provider string
	Field    string
	Raw      json.RawMessage
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: no %s found in response: %s", e.Provider, e.Field, string(e.Raw))
}

// IsQuotaExhausted reports whether err (or any error it wraps) is a
// ProviderError signaling quota exhaustion.
func IsQuotaExhausted(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Quota
}
