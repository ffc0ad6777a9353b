package credential

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Provider resolves the credential to use for the next outbound call.
// Implementations must not cache: the key may rotate between calls.
type Provider interface {
	Resolve(ctx context.Context) (string, error)
}

// Selector is the host capability that lets a user pick a key
type Selector interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context) (string, error)

// Resolve calls f
func (f ProviderFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static returns a provider that always resolves to key
func Static(key string) Provider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		return key, nil
	})
}

// Status is a snapshot of the keyring state
type Status struct {
	Selected           bool   `json:"selected"`
	Source             string `json:"source"` // "selected", "environment" or ""
	SelectionRequested bool   `json:"selection_requested"`
	EnvVar             string `json:"env_var"`
}

// Keyring holds an optional user-selected key and falls back to an
// environment variable that is read again on every Resolve.
type Keyring struct {
	envVar string

	mu                 sync.RWMutex
	selected           string
	selectionRequested bool
}

// NewKeyring creates a keyring backed by the named environment variable
func NewKeyring(envVar string) *Keyring {
	return &Keyring{envVar: envVar}
}

// Resolve returns the selected key, or the environment value when none is selected
func (k *Keyring) Resolve(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	k.mu.RLock()
	selected := k.selected
	k.mu.RUnlock()

	if selected != "" {
		return selected, nil
	}
	return os.Getenv(k.envVar), nil
}

// HasSelectedKey reports whether any usable key is currently available
func (k *Keyring) HasSelectedKey(ctx context.Context) (bool, error) {
	key, err := k.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return key != "", nil
}

// OpenSelectKey drops the selected key and flags that the user must pick a new one.
// The flag is cleared by the next Select.
func (k *Keyring) OpenSelectKey(ctx context.Context) error {
	k.mu.Lock()
	k.selected = ""
	k.selectionRequested = true
	k.mu.Unlock()

	log.Warn().Str("component", "credential").Msg("Key selection requested")
	return nil
}

// Select stores a user-chosen key
func (k *Keyring) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}

	k.mu.Lock()
	k.selected = key
	k.selectionRequested = false
	k.mu.Unlock()

	log.Info().Str("component", "credential").Msg("Key selected")
	return nil
}

// Status returns the current keyring state without exposing the key
func (k *Keyring) Status() Status {
	k.mu.RLock()
	defer k.mu.RUnlock()

	st := Status{
		SelectionRequested: k.selectionRequested,
		EnvVar:             k.envVar,
	}
	switch {
	case k.selected != "":
		st.Selected = true
		st.Source = "selected"
	case os.Getenv(k.envVar) != "":
		st.Selected = true
		st.Source = "environment"
	}
	return st
}

// Ensure makes sure a key is available before a call. When a selector is
// present and reports no key, the selection surface is opened first. A nil
// selector is not an error: whatever key the provider holds is returned.
func Ensure(ctx context.Context, p Provider, s Selector) (string, error) {
	if s != nil {
		has, err := s.HasSelectedKey(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to check key selection: %w", err)
		}
		if !has {
			if err := s.OpenSelectKey(ctx); err != nil {
				return "", fmt.Errorf("failed to open key selection: %w", err)
			}
		}
	}

	key, err := p.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve credential: %w", err)
	}
	return key, nil
}
