package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"paralelogram/internal/auth/models"
	"paralelogram/internal/platform/metrics"
	"paralelogram/internal/platform/middleware"
	"paralelogram/pkg/platform/httputil"
	"paralelogram/pkg/requestcontext"
)

// Service defines the token operations exposed over HTTP.
type Service interface {
	IssueUserToken(ctx context.Context, creds models.UserCredentials) (*models.AccessToken, error)
	RefreshUserToken(ctx context.Context, refreshToken string) (*models.AccessToken, error)
	ValidateCallerToken(ctx context.Context) (*models.TokenStatus, error)
}

// Handler serves the /token endpoints.
type Handler struct {
	tokens     Service
	logger     *slog.Logger
	metrics    *metrics.Metrics
	verifier   middleware.TokenVerifier
	issueLimit func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithIssueLimit throttles POST /token/generate, the only route that takes
// a password.
func WithIssueLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.issueLimit = mw
	}
}

// New creates a token Handler. Validation requires a verified bearer token.
func New(tokens Service, logger *slog.Logger, m *metrics.Metrics, verifier middleware.TokenVerifier, opts ...Option) *Handler {
	h := &Handler{
		tokens:   tokens,
		logger:   logger,
		metrics:  m,
		verifier: verifier,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the token routes on r.
func (h *Handler) Register(r chi.Router) {
	tokenRouter := chi.NewRouter()
	tokenRouter.Use(chimw.Recoverer)
	tokenRouter.Use(middleware.RequestID)
	tokenRouter.Use(middleware.Logger(h.logger))
	tokenRouter.Use(chimw.Timeout(30 * time.Second))
	tokenRouter.Use(middleware.Latency(h.metrics))

	if h.issueLimit != nil {
		tokenRouter.With(h.issueLimit).Post("/generate", h.handleGenerate)
	} else {
		tokenRouter.Post("/generate", h.handleGenerate)
	}
	tokenRouter.Post("/refresh", h.handleRefresh)
	tokenRouter.With(middleware.RequireAuth(h.verifier, h.logger)).Get("/validate", h.handleValidate)

	r.Mount("/token", tokenRouter)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var creds models.UserCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.logger.WarnContext(ctx, "invalid token request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteErrorBody(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	token, err := h.tokens.IssueUserToken(ctx, creds)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, token)
}

// handleRefresh reads refreshToken from the form body or the query string.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "invalid refresh request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteErrorBody(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	refreshToken := strings.TrimSpace(r.Form.Get("refreshToken"))

	token, err := h.tokens.RefreshUserToken(ctx, refreshToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	status, err := h.tokens.ValidateCallerToken(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}
