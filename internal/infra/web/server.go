package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"immersive-english/internal/config"
	"immersive-english/internal/infra/metrics"
	red "immersive-english/internal/infra/redis"
	"immersive-english/internal/usecase"
)

// Server wires the HTTP surface: the public join flow, registration, the
// learner APIs and the admin surface.
type Server struct {
	allocUC  *usecase.AllocatorUseCase
	redeemUC *usecase.RedemptionUseCase
	regUC    *usecase.RegistrationUseCase
	vocabUC  *usecase.VocabUseCase
	clipUC   *usecase.ClipUseCase
	adminUC  *usecase.CodeAdminUseCase

	auth        *AuthManager
	limiter     *red.RateLimiter
	publicURL   string
	adminAPIKey string
	rateLimit   int
	rateWindow  time.Duration

	srv *http.Server
	log *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	allocUC *usecase.AllocatorUseCase,
	redeemUC *usecase.RedemptionUseCase,
	regUC *usecase.RegistrationUseCase,
	vocabUC *usecase.VocabUseCase,
	clipUC *usecase.ClipUseCase,
	adminUC *usecase.CodeAdminUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	metrics.MustRegister()
	s := &Server{
		allocUC:     allocUC,
		redeemUC:    redeemUC,
		regUC:       regUC,
		vocabUC:     vocabUC,
		clipUC:      clipUC,
		adminUC:     adminUC,
		auth:        auth,
		limiter:     limiter,
		publicURL:   strings.TrimSuffix(cfg.Server.PublicURL, "/"),
		adminAPIKey: cfg.Server.AdminAPIKey,
		rateLimit:   cfg.Pool.RateLimit,
		rateWindow:  cfg.Pool.RateWindow,
		log:         logger,
	}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Routes builds the chi router. Exposed for httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.With(s.rateLimited).Get("/auto-join", s.handleAutoJoin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/codes/{code}", s.handleInspectCode)
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/clips", s.handleListClips)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionRequired)
			r.Get("/vocab", s.handleListVocab)
			r.Put("/vocab", s.handleMarkVocab)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Post("/codes", s.handleGenerateCodes)
			r.Get("/codes", s.handleListCodes)
			r.Post("/codes/{code}/expire", s.handleExpireCode)
			r.Post("/uploads", s.handleCreateUpload)
		})
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ===== Response envelope =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errBody{OK: false, Error: msg})
}
