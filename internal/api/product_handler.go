package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unalkalkan/OneClickStudio/internal/export"
	"github.com/unalkalkan/OneClickStudio/internal/illustration"
	"github.com/unalkalkan/OneClickStudio/internal/media"
	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// maxUploadBytes bounds cover uploads
const maxUploadBytes = 10 << 20

// ProductHandler handles product endpoints
type ProductHandler struct {
	service     *product.Service
	illustrator *illustration.Illustrator
	media       *media.Client
	exporter    *export.Exporter
}

type coverRequest struct {
	Prompt  string `json:"prompt"`
	Version int    `json:"version"`
}

type salesCopyRequest struct {
	Instruction string `json:"instruction"`
	Version     int    `json:"version"`
}

type narrationRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, p, http.StatusCreated)
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products := h.service.Store().List(r.Context())
	respondJSON(w, map[string]any{
		"products": products,
		"count":    len(products),
	}, http.StatusOK)
}

// Get handles GET /api/v1/products/{productID}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Store().Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, p, http.StatusOK)
}

// GenerateCover handles POST /api/v1/products/{productID}/cover
func (h *ProductHandler) GenerateCover(w http.ResponseWriter, r *http.Request) {
	var req coverRequest
	if err := decodeJSON(w, r, &req); err != nil && r.ContentLength != 0 {
		respondErr(w, r, err)
		return
	}

	p, err := h.service.GenerateCover(r.Context(), chi.URLParam(r, "productID"), req.Prompt, req.Version)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, p, http.StatusOK)
}

// UploadCover handles POST /api/v1/products/{productID}/cover/upload
func (h *ProductHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondErr(w, r, badRequest("failed to parse form: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondErr(w, r, badRequest("no file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondErr(w, r, badRequest("failed to read file: %v", err))
		return
	}

	var version int
	if v := strings.TrimSpace(r.FormValue("version")); v != "" {
		if version, err = strconv.Atoi(v); err != nil {
			respondErr(w, r, badRequest("invalid version: %q", v))
			return
		}
	}

	p, err := h.service.UploadCover(r.Context(), chi.URLParam(r, "productID"), data, version)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, p, http.StatusOK)
}

// StartIllustrations handles POST /api/v1/products/{productID}/illustrations
func (h *ProductHandler) StartIllustrations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := h.illustrator.Start(id); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, map[string]any{"productId": id, "running": true}, http.StatusAccepted)
}

// IllustrationStatus handles GET /api/v1/products/{productID}/illustrations
func (h *ProductHandler) IllustrationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	p, err := h.service.Store().Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	pending := 0
	if p.Content != nil {
		for _, ch := range p.Content.Chapters {
			if ch.NeedsIllustration() {
				pending++
			}
		}
	}
	respondJSON(w, map[string]any{
		"productId": id,
		"running":   h.illustrator.Running(id),
		"pending":   pending,
	}, http.StatusOK)
}

// CancelIllustrations handles DELETE /api/v1/products/{productID}/illustrations
func (h *ProductHandler) CancelIllustrations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	respondJSON(w, map[string]any{"productId": id, "cancelled": h.illustrator.Cancel(id)}, http.StatusOK)
}

// RefineSalesCopy handles POST /api/v1/products/{productID}/sales-copy
func (h *ProductHandler) RefineSalesCopy(w http.ResponseWriter, r *http.Request) {
	var req salesCopyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	p, err := h.service.RefineSalesCopy(r.Context(), chi.URLParam(r, "productID"), req.Instruction, req.Version)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, p, http.StatusOK)
}

// Narrate handles POST /api/v1/products/{productID}/narration. An empty
// text narrates the product description.
func (h *ProductHandler) Narrate(w http.ResponseWriter, r *http.Request) {
	var req narrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Voice != "" && !provider.IsVoice(req.Voice) {
		respondErr(w, r, badRequest("unknown voice: %s", req.Voice))
		return
	}

	p, err := h.service.Store().Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" && p.Content != nil {
		text = p.Content.Description
	}
	if text == "" {
		respondErr(w, r, badRequest("nothing to narrate"))
		return
	}

	audio, err := h.media.Narrate(r.Context(), text, req.Voice, req.Language)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, map[string]string{"audio": audio}, http.StatusOK)
}

// Export handles GET /api/v1/products/{productID}/export?format=
func (h *ProductHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondErr(w, r, badRequest("%v", err))
		return
	}
	p, err := h.service.Store().Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Export(r.Context(), p, format, &buf); err != nil {
		respondErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(p, format)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
