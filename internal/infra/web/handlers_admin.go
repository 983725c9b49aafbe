package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
)

type generateCodesRequest struct {
	Count     int        `json:"count"`
	Kind      string     `json:"kind"`
	ValidDays *int       `json:"valid_days"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type accessCodeResponse struct {
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	Kind        string     `json:"kind"`
	ValidDays   *int       `json:"valid_days,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ActivatedBy *string    `json:"activated_by,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toCodeResponse(c *model.AccessCode) accessCodeResponse {
	return accessCodeResponse{
		Code:        c.Code,
		Status:      string(c.Status),
		Kind:        string(c.Kind),
		ValidDays:   c.ValidDays,
		ExpiresAt:   c.ExpiresAt,
		ActivatedBy: c.ActivatedBy,
		ActivatedAt: c.ActivatedAt,
		CreatedAt:   c.CreatedAt,
	}
}

func (s *Server) handleGenerateCodes(w http.ResponseWriter, r *http.Request) {
	var req generateCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind := model.CodeKind(req.Kind)
	if kind == "" {
		kind = model.CodeKindStandard
	}

	codes, err := s.adminUC.GenerateBatch(r.Context(), req.Count, kind, req.ValidDays, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "invalid batch parameters")
			return
		}
		s.log.Error().Err(err).Msg("code batch generation failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	out := make([]accessCodeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toCodeResponse(c))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "codes": out})
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	codes, err := s.adminUC.List(r.Context(), model.CodeStatus(q.Get("status")), offset, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("code listing failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	out := make([]accessCodeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toCodeResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "codes": out})
}

func (s *Server) handleExpireCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := s.adminUC.Expire(r.Context(), code); err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "code not found")
		case errors.Is(err, domain.ErrCodeAlreadyUsed):
			writeError(w, http.StatusConflict, "code is already activated and cannot be expired")
		case errors.Is(err, domain.ErrClaimLost):
			writeError(w, http.StatusConflict, "code state changed underneath, please retry")
		default:
			s.log.Error().Err(err).Str("code", code).Msg("code expiry failed")
			writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type createUploadRequest struct {
	Title              string `json:"title"`
	MaxDurationSeconds int    `json:"max_duration_seconds"`
}

// handleCreateUpload reserves a direct-upload slot with the video provider
// and records the clip so it shows up in the catalog once uploaded.
func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	var req createUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	clip, uploadURL, err := s.clipUC.CreateUploadURL(r.Context(), req.Title, req.MaxDurationSeconds)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "a clip title is required")
			return
		}
		s.log.Error().Err(err).Msg("direct upload creation failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":         true,
		"upload_url": uploadURL,
		"clip": clipResponse{
			ID: clip.ID, Title: clip.Title, StreamUID: clip.StreamUID, DurationSeconds: clip.DurationSeconds,
		},
	})
}
