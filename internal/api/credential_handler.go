package api

import (
	"net/http"

	"github.com/unalkalkan/OneClickStudio/internal/credential"
)

// CredentialHandler exposes the key selection surface
type CredentialHandler struct {
	keyring *credential.Keyring
}

type selectKeyRequest struct {
	APIKey string `json:"api_key"`
}

// Get handles GET /api/v1/credential. The key itself is never returned.
func (h *CredentialHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.keyring.Status(), http.StatusOK)
}

// Select handles PUT /api/v1/credential
func (h *CredentialHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := h.keyring.Select(req.APIKey); err != nil {
		respondErr(w, r, badRequest("%v", err))
		return
	}
	respondJSON(w, h.keyring.Status(), http.StatusOK)
}
