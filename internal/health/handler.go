package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) (Status, error)

// Response represents a health check response
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handler manages health checks
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	version string
}

// NewHandler creates a new health check handler
func NewHandler(version string) *Handler {
	return &Handler{
		checks:  make(map[string]CheckFunc),
		version: version,
	}
}

// Register adds a health check
func (h *Handler) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Names returns the registered check names in order
func (h *Handler) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunChecks executes all registered checks concurrently
func (h *Handler) RunChecks(ctx context.Context) Response {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for k, v := range h.checks {
		checks[k] = v
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			status, err := check(ctx)
			result := CheckResult{Status: status}
			if err != nil {
				result.Error = err.Error()
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	overall := StatusHealthy
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		} else if r.Status == StatusDegraded && overall == StatusHealthy {
			overall = StatusDegraded
		}
	}

	return Response{
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    results,
		Version:   h.version,
	}
}

// LivenessHandler reports that the process is up
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
			Version:   h.version,
		})
	}
}

// ReadinessHandler runs every check and answers 503 when one is unhealthy
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		response := h.RunChecks(ctx)
		code := http.StatusOK
		if response.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, response)
	}
}

// HealthHandler runs every check and always answers 200
func (h *Handler) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		writeResponse(w, http.StatusOK, h.RunChecks(ctx))
	}
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn().Str("component", "health").Err(err).Msg("Failed to encode health response")
	}
}

// Pinger is anything that can prove it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck is unhealthy when the pinger fails
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if err := p.Ping(ctx); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}

// CredentialCheck is degraded when no API key resolves. The service still
// runs, but every model call will ask the user to select a key.
func CredentialCheck(resolve func(ctx context.Context) (string, error)) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		key, err := resolve(ctx)
		if err != nil {
			return StatusDegraded, err
		}
		if key == "" {
			return StatusDegraded, errors.New("no API key selected")
		}
		return StatusHealthy, nil
	}
}

// ListCheck is unhealthy when list returns nothing; used for the model registry
func ListCheck(what string, list func() []string) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if len(list()) == 0 {
			return StatusUnhealthy, errors.New("no " + what + " registered")
		}
		return StatusHealthy, nil
	}
}
