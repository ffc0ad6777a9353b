package apierror

import (
	"errors"
	"fmt"
)

// Kind groups failures by how the user can recover from them
type Kind int

const (
	// KindGeneric covers network errors, malformed responses and anything unrecognised
	KindGeneric Kind = iota
	// KindCredential means the active key lacks access to the requested capability
	KindCredential
	// KindTransient marks rate limiting and backend overload
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindTransient:
		return "transient"
	default:
		return "generic"
	}
}

// User-facing notices for the two recovery paths
const (
	CredentialMessage = "This feature needs an API key from a project with billing enabled. Please select a different key and try again."
	GenericMessage    = "The operation failed. Check your connection and try again."
)

var (
	// ErrEmptyResponse is returned when the backend answers with no usable content
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrNoImage is returned when an image call yields no inline image part
	ErrNoImage = errors.New("no image in model response")
)

// StatusError is a failed backend call with its HTTP status
type StatusError struct {
	Code    int    // HTTP status code
	Status  string // backend status, e.g. PERMISSION_DENIED
	Message string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("model API error %d (%s): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("model API error %d: %s", e.Code, e.Message)
}

// ValidationError reports a response that does not match the expected schema
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid response: %s: %s", e.Field, e.Reason)
}

// ClassifiedError carries the classification of the error it wraps
type ClassifiedError struct {
	Err    error
	Result Result
}

func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// IsCredentialIssue reports whether err was classified as a credential failure
func IsCredentialIssue(err error) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Result.CredentialIssue
	}
	return false
}

// UserMessage returns the notice to show for err
func UserMessage(err error) string {
	if IsCredentialIssue(err) {
		return CredentialMessage
	}
	return GenericMessage
}
