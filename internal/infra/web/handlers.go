package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
)

// handleAutoJoin is the public entry point: claim one code and redirect the
// visitor to the claim-check page with the code pre-filled.
//
// An empty pool answers 200 with an error payload on purpose: "no inventory"
// is an expected business condition and must stay distinguishable from a
// store failure in monitoring.
func (s *Server) handleAutoJoin(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	if redirect == "" {
		redirect = "/"
	}

	code, err := s.allocUC.Allocate(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoCodeAvailable) {
			writeJSON(w, http.StatusOK, errBody{OK: false, Error: "no invitation codes left right now, please try again later"})
			return
		}
		s.log.Error().Err(err).Msg("allocation failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	q := url.Values{}
	q.Set("code", code.Code)
	q.Set("redirect", redirect)
	// publicURL makes the Location absolute when running behind a proxy.
	http.Redirect(w, r, s.publicURL+"/join?"+q.Encode(), http.StatusFound)
}

type codeVerdictResponse struct {
	OK        bool   `json:"ok"`
	Code      string `json:"code"`
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	Kind      string `json:"kind,omitempty"`
	ValidDays *int   `json:"valid_days,omitempty"`
}

// handleInspectCode backs the claim-check page. Read-only: the page may be
// reloaded or the link shared any number of times without burning the code.
func (s *Server) handleInspectCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	v, err := s.redeemUC.Inspect(r.Context(), code)
	if err != nil {
		s.log.Error().Err(err).Str("code", code).Msg("code inspection failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	resp := codeVerdictResponse{OK: true, Code: v.Code, Valid: v.Valid}
	if v.Valid {
		resp.Kind = string(v.Kind)
		resp.ValidDays = v.ValidDays
	} else {
		resp.Reason = verdictReason(v.Reason)
	}
	writeJSON(w, http.StatusOK, resp)
}

func verdictReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCodeExpired):
		return "this invitation code has expired"
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return "this invitation code has already been used"
	default:
		return "this invitation code does not exist"
	}
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"inviteCode"`
	Nickname   string `json:"nickname"`
	Phone      string `json:"phone"`
}

type userResponse struct {
	OK       bool   `json:"ok"`
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// handleRegister finalizes a registration: consume the invite code and create
// the account atomically, then log the new user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.regUC.Finalize(r.Context(), req.InviteCode, req.Email, req.Password, req.Nickname, req.Phone)
	if err != nil {
		s.writeFinalizeError(w, err)
		return
	}

	if _, err := s.auth.Mint(w, user.ID, user.IsAdmin); err != nil {
		s.log.Error().Err(err).Msg("session mint failed")
	}
	writeJSON(w, http.StatusCreated, userResponse{OK: true, ID: user.ID, Email: user.Email, Nickname: user.Nickname})
}

// writeFinalizeError keeps the finalization conflict distinguishable from
// plain validation failures: 409 tells the client to fetch a fresh code, 400
// tells it to fix the form.
func (s *Server) writeFinalizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCodeAlreadyUsed), errors.Is(err, domain.ErrClaimLost):
		writeError(w, http.StatusConflict, "this invitation code was just used, please request a new one")
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusConflict, "this invitation code has expired, please request a new one")
	case errors.Is(err, domain.ErrCodeNotFound):
		writeError(w, http.StatusBadRequest, "this invitation code does not exist")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, "an account with this email already exists")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid registration details")
	default:
		s.log.Error().Err(err).Msg("registration failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.regUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	if _, err := s.auth.Mint(w, user.ID, user.IsAdmin); err != nil {
		s.log.Error().Err(err).Msg("session mint failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{OK: true, ID: user.ID, Email: user.Email, Nickname: user.Nickname})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ===== Vocabulary =====

type vocabEntryResponse struct {
	Word      string    `json:"word"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleListVocab(w http.ResponseWriter, r *http.Request) {
	claims := sessionFrom(r)
	status := model.VocabStatus(r.URL.Query().Get("status"))

	entries, err := s.vocabUC.List(r.Context(), claims.UserID, status)
	if err != nil {
		s.log.Error().Err(err).Msg("vocab list failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	out := make([]vocabEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, vocabEntryResponse{Word: e.Word, Status: string(e.Status), UpdatedAt: e.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entries": out})
}

type markVocabRequest struct {
	Word   string `json:"word"`
	Status string `json:"status"`
}

func (s *Server) handleMarkVocab(w http.ResponseWriter, r *http.Request) {
	claims := sessionFrom(r)

	var req markVocabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.vocabUC.Mark(r.Context(), claims.UserID, req.Word, model.VocabStatus(req.Status))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "word and a known/unknown status are required")
			return
		}
		s.log.Error().Err(err).Msg("vocab mark failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entry": vocabEntryResponse{
		Word: entry.Word, Status: string(entry.Status), UpdatedAt: entry.UpdatedAt,
	}})
}

// ===== Clips =====

type clipResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	StreamUID       string `json:"stream_uid"`
	DurationSeconds int    `json:"duration_seconds"`
	SubtitleENURL   string `json:"subtitle_en_url,omitempty"`
	SubtitleZHURL   string `json:"subtitle_zh_url,omitempty"`
}

func (s *Server) handleListClips(w http.ResponseWriter, r *http.Request) {
	clips, err := s.clipUC.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("clip list failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please retry")
		return
	}

	out := make([]clipResponse, 0, len(clips))
	for _, c := range clips {
		out = append(out, clipResponse{
			ID: c.ID, Title: c.Title, StreamUID: c.StreamUID, DurationSeconds: c.DurationSeconds,
			SubtitleENURL: c.SubtitleENURL, SubtitleZHURL: c.SubtitleZHURL,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "clips": out})
}
