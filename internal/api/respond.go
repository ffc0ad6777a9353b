package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/illustration"
	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/internal/video"
)

// maxBodyBytes bounds JSON bodies; image data URIs make them large
const maxBodyBytes = 32 << 20

// errBadRequest marks malformed client input
var errBadRequest = errors.New("bad request")

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error           string `json:"error"`
	CredentialIssue bool   `json:"credential_issue"`
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Str("component", "api").Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, ErrorResponse{Error: message}, status)
}

// respondErr maps err onto a status code and the user-facing notice
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	event := log.Warn()
	if status >= 500 {
		event = log.Error()
	}
	event.Str("component", "api").
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Int("status", status).
		Err(err).
		Msg("Request failed")
	respondJSON(w, body, status)
}

func classify(err error) (int, ErrorResponse) {
	var validation *apierror.ValidationError
	switch {
	case apierror.IsCredentialIssue(err):
		return http.StatusForbidden, ErrorResponse{Error: apierror.CredentialMessage, CredentialIssue: true}
	case errors.Is(err, product.ErrNotFound), errors.Is(err, video.ErrJobNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error()}
	case errors.Is(err, errBadRequest), errors.Is(err, product.ErrInvalidRequest), errors.Is(err, product.ErrChapterOutOfRange):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, product.ErrVersionConflict), errors.Is(err, product.ErrNoContent),
		errors.Is(err, video.ErrBusy), errors.Is(err, illustration.ErrAlreadyRunning):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: validation.Error()}
	case errors.Is(err, context.Canceled):
		return 499, ErrorResponse{Error: "request cancelled"}
	default:
		return http.StatusBadGateway, ErrorResponse{Error: apierror.GenericMessage}
	}
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
