package apierror

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// KeySelector opens the host's key selection surface
type KeySelector interface {
	OpenSelectKey(ctx context.Context) error
}

// Result is the outcome of classifying an error
type Result struct {
	CredentialIssue bool
	Kind            Kind
}

var credentialMarkers = []string{
	"403",
	"PERMISSION_DENIED",
	"Requested entity was not found",
}

// Classifier separates credential failures from everything else and
// triggers key reselection for the former. It never retries.
type Classifier struct {
	Selector KeySelector
}

// NewClassifier creates a classifier; selector may be nil
func NewClassifier(selector KeySelector) *Classifier {
	return &Classifier{Selector: selector}
}

// Classify inspects err and, for credential failures, opens key selection once
func (c *Classifier) Classify(ctx context.Context, err error) Result {
	if err == nil {
		return Result{}
	}

	res := classify(err)
	if res.CredentialIssue {
		log.Warn().Str("component", "classifier").Err(err).Msg("Credential issue detected")
		if c != nil && c.Selector != nil {
			if selErr := c.Selector.OpenSelectKey(ctx); selErr != nil {
				log.Error().Str("component", "classifier").Err(selErr).Msg("Failed to open key selection")
			}
		}
	}
	return res
}

// Check classifies err and wraps it so callers can inspect the result.
// Already classified errors pass through untouched.
func (c *Classifier) Check(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return err
	}
	return &ClassifiedError{Err: err, Result: c.Classify(ctx, err)}
}

func classify(err error) Result {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{Kind: KindGeneric}
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusForbidden, http.StatusNotFound:
			return Result{CredentialIssue: true, Kind: KindCredential}
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return Result{Kind: KindTransient}
		}
	}

	msg := err.Error()
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return Result{CredentialIssue: true, Kind: KindCredential}
		}
	}
	return Result{Kind: KindGeneric}
}
