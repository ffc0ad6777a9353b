package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unalkalkan/OneClickStudio/internal/media"
	"github.com/unalkalkan/OneClickStudio/internal/video"
)

// StudioHandler handles the free-form creative tools
type StudioHandler struct {
	media  *media.Client
	videos *video.Jobs
}

type imageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
	Size        string `json:"size"`
}

type editRequest struct {
	Image       string `json:"image"`
	Instruction string `json:"instruction"`
}

type analyzeRequest struct {
	Image    string `json:"image"`
	Question string `json:"question"`
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type videoRequest struct {
	Prompt      string `json:"prompt"`
	Image       string `json:"image"`
	VideoURI    string `json:"videoUri"`
	AspectRatio string `json:"aspectRatio"`
}

// GenerateImage handles POST /api/v1/studio/images
func (h *StudioHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondErr(w, r, badRequest("prompt is required"))
		return
	}
	if req.AspectRatio != "" && !media.ValidAspectRatio(req.AspectRatio) {
		respondErr(w, r, badRequest("unsupported aspect ratio: %s", req.AspectRatio))
		return
	}
	if req.Size != "" && !media.ValidSizeTier(req.Size) {
		respondErr(w, r, badRequest("unsupported size: %s", req.Size))
		return
	}

	uri, err := h.media.GenerateProImage(r.Context(), req.Prompt, req.AspectRatio, req.Size)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, map[string]string{"image": uri}, http.StatusOK)
}

// EditImage handles POST /api/v1/studio/edit
func (h *StudioHandler) EditImage(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if _, err := media.ParseImage(req.Image); err != nil {
		respondErr(w, r, badRequest("%v", err))
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		respondErr(w, r, badRequest("instruction is required"))
		return
	}

	uri, err := h.media.EditImage(r.Context(), req.Image, req.Instruction)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, map[string]string{"image": uri}, http.StatusOK)
}

// AnalyzeImage handles POST /api/v1/studio/analyze
func (h *StudioHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if _, err := media.ParseImage(req.Image); err != nil {
		respondErr(w, r, badRequest("%v", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		req.Question = "Describe this image."
	}

	answer, err := h.media.AnalyzeImage(r.Context(), req.Image, req.Question)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, map[string]string{"analysis": answer}, http.StatusOK)
}

// Translate handles POST /api/v1/studio/translate. It never fails on the
// model side: the source text comes back when translation is unavailable.
func (h *StudioHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Text == "" || strings.TrimSpace(req.TargetLanguage) == "" {
		respondErr(w, r, badRequest("text and targetLanguage are required"))
		return
	}
	respondJSON(w, map[string]string{"text": h.media.TranslateText(r.Context(), req.Text, req.TargetLanguage)}, http.StatusOK)
}

// GenerateVideo handles POST /api/v1/studio/videos
func (h *StudioHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Image != "" {
		if _, err := media.ParseImage(req.Image); err != nil {
			respondErr(w, r, badRequest("%v", err))
			return
		}
	}
	h.submit(w, r, video.JobRequest{Prompt: req.Prompt, AspectRatio: req.AspectRatio, SeedImage: req.Image})
}

// ExtendVideo handles POST /api/v1/studio/videos/extend
func (h *StudioHandler) ExtendVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.VideoURI) == "" {
		respondErr(w, r, badRequest("videoUri is required"))
		return
	}
	h.submit(w, r, video.JobRequest{Prompt: req.Prompt, AspectRatio: req.AspectRatio, SourceURI: req.VideoURI})
}

func (h *StudioHandler) submit(w http.ResponseWriter, r *http.Request, req video.JobRequest) {
	job, err := h.videos.Submit(req)
	if err != nil {
		if !errors.Is(err, video.ErrBusy) {
			err = badRequest("%v", err)
		}
		respondErr(w, r, err)
		return
	}
	respondJSON(w, job, http.StatusAccepted)
}

// GetVideo handles GET /api/v1/studio/videos/{jobID}
func (h *StudioHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	job, err := h.videos.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, job, http.StatusOK)
}

// CancelVideo handles DELETE /api/v1/studio/videos/{jobID}
func (h *StudioHandler) CancelVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if err := h.videos.Cancel(id); err != nil {
		respondErr(w, r, err)
		return
	}
	job, err := h.videos.Get(id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, job, http.StatusOK)
}
