package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"paralelogram/internal/platform/metrics"
	"paralelogram/internal/platform/middleware"
	"paralelogram/internal/user/models"
	"paralelogram/pkg/platform/httputil"
	"paralelogram/pkg/requestcontext"
)

// Service defines the user operations exposed over HTTP.
type Service interface {
	GetUser(ctx context.Context, userName string) (*models.User, error)
	AddUser(ctx context.Context, req models.AddUserRequest) (*models.User, error)
}

// Handler serves the /user endpoints. Every route needs a verified bearer
// token; adding users additionally needs the admin role.
type Handler struct {
	users    Service
	logger   *slog.Logger
	metrics  *metrics.Metrics
	verifier middleware.TokenVerifier
}

func New(users Service, logger *slog.Logger, m *metrics.Metrics, verifier middleware.TokenVerifier) *Handler {
	return &Handler{
		users:    users,
		logger:   logger,
		metrics:  m,
		verifier: verifier,
	}
}

// Register mounts the user routes on r.
func (h *Handler) Register(r chi.Router) {
	adminRole := models.RoleAdmin.Value()
	visitorRole := models.RoleVisitor.Value()

	userRouter := chi.NewRouter()
	userRouter.Use(chimw.Recoverer)
	userRouter.Use(middleware.RequestID)
	userRouter.Use(middleware.Logger(h.logger))
	userRouter.Use(chimw.Timeout(30 * time.Second))
	userRouter.Use(middleware.Latency(h.metrics))
	userRouter.Use(middleware.RequireAuth(h.verifier, h.logger))

	userRouter.With(middleware.RequireRole(h.logger, adminRole, visitorRole)).Get("/{userName}", h.handleGetUser)
	userRouter.With(middleware.RequireRole(h.logger, adminRole)).Post("/", h.handleAddUser)

	r.Mount("/user", userRouter)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userName := chi.URLParam(r, "userName")
	h.logger.InfoContext(ctx, "getting user information",
		"user_name", userName,
		"request_id", requestcontext.RequestID(ctx),
	)

	user, err := h.users.GetUser(ctx, userName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleAddUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid add user request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteErrorBody(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.users.AddUser(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "add user failed",
			"user_name", req.UserName,
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
