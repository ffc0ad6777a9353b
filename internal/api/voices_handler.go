package api

import (
	"net/http"
	"strings"

	"github.com/unalkalkan/OneClickStudio/internal/provider"
)

// VoicesHandler serves the prebuilt voice catalogue
type VoicesHandler struct {
	registry *provider.Registry
}

// NewVoicesHandler creates a new voices handler
func NewVoicesHandler(registry *provider.Registry) *VoicesHandler {
	return &VoicesHandler{registry: registry}
}

// VoiceResponse represents a voice in the API response
type VoiceResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Gender      string   `json:"gender,omitempty"`
	Description string   `json:"description,omitempty"`
	Providers   []string `json:"providers"`
}

// ListVoices handles GET /api/v1/voices. ?gender= filters the list.
func (h *VoicesHandler) ListVoices(w http.ResponseWriter, r *http.Request) {
	gender := strings.ToLower(r.URL.Query().Get("gender"))
	providers := h.registry.List()
	if len(providers) == 0 {
		respondError(w, "No model providers configured", http.StatusServiceUnavailable)
		return
	}

	voices := make([]VoiceResponse, 0)
	for _, v := range provider.Voices() {
		if gender != "" && strings.ToLower(v.Gender) != gender {
			continue
		}
		voices = append(voices, VoiceResponse{
			ID:          v.ID,
			Name:        v.Name,
			Gender:      v.Gender,
			Description: v.Description,
			Providers:   providers,
		})
	}

	respondJSON(w, map[string]any{
		"voices": voices,
		"count":  len(voices),
	}, http.StatusOK)
}
