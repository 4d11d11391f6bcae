package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"paralelogram/internal/auth/models"
	"paralelogram/internal/keycloak"
	"paralelogram/internal/platform/metrics"
	dErrors "paralelogram/pkg/domain-errors"
	"paralelogram/pkg/platform/audit"
	"paralelogram/pkg/requestcontext"
)

// IdentityProvider is the part of keycloak.Client the token service uses.
type IdentityProvider interface {
	PasswordGrant(ctx context.Context, username, password string) (*keycloak.Token, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*keycloak.Token, error)
	FetchUserInfo(ctx context.Context, bearerToken string) (bool, error)
}

// AuditPublisher emits audit events for token operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	operationIssue    = "issue"
	operationRefresh  = "refresh"
	operationValidate = "validate"
)

// Service issues, refreshes and validates tokens by delegating to the
// identity provider. It holds no state between requests and never retries.
type Service struct {
	idp            IdentityProvider
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

// New creates a token service.
func New(idp IdentityProvider, opts ...Option) (*Service, error) {
	if idp == nil {
		return nil, errors.New("identity provider is required")
	}
	s := &Service{
		idp:    idp,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueUserToken exchanges credentials for a token pair.
func (s *Service) IssueUserToken(ctx context.Context, creds models.UserCredentials) (*models.AccessToken, error) {
	t, err := s.idp.PasswordGrant(ctx, creds.Username, creds.Password)
	if err != nil {
		s.observeFailure(ctx, operationIssue, creds.Username, err)
		return nil, err
	}
	s.observeSuccess(ctx, operationIssue, audit.EventTokenIssued, creds.Username)
	return models.NewAccessToken(t), nil
}

// RefreshUserToken exchanges a refresh token for a new token pair.
func (s *Service) RefreshUserToken(ctx context.Context, refreshToken string) (*models.AccessToken, error) {
	t, err := s.idp.RefreshGrant(ctx, refreshToken)
	if err != nil {
		s.observeFailure(ctx, operationRefresh, "", err)
		return nil, err
	}
	s.observeSuccess(ctx, operationRefresh, audit.EventTokenRefreshed, "")
	return models.NewAccessToken(t), nil
}

// ValidateCallerToken asks the provider whether the bearer token attached to
// the current request is still accepted.
func (s *Service) ValidateCallerToken(ctx context.Context) (*models.TokenStatus, error) {
	username := requestcontext.Username(ctx)
	token := requestcontext.BearerToken(ctx)
	if token == "" {
		err := dErrors.NewAuth(http.StatusUnauthorized, "user not authenticated")
		s.observeFailure(ctx, operationValidate, username, err)
		return nil, err
	}

	valid, err := s.idp.FetchUserInfo(ctx, token)
	if err != nil {
		s.observeFailure(ctx, operationValidate, username, err)
		return nil, err
	}
	s.observeSuccess(ctx, operationValidate, audit.EventTokenValidated, username)
	return &models.TokenStatus{Valid: valid}, nil
}

func (s *Service) observeSuccess(ctx context.Context, operation string, event audit.AuditEvent, subject string) {
	s.metrics.ObserveTokenOperation(operation, metrics.OutcomeSuccess)
	s.emit(ctx, event, subject, "")
}

func (s *Service) observeFailure(ctx context.Context, operation, subject string, err error) {
	outcome := metrics.OutcomeFailure
	if dErrors.StatusOf(err) < http.StatusInternalServerError {
		outcome = metrics.OutcomeRejected
	}
	s.metrics.ObserveTokenOperation(operation, outcome)
	s.logger.WarnContext(ctx, "token operation failed",
		"operation", operation,
		"status", dErrors.StatusOf(err),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventAuthFailed, subject, operation+": "+dErrors.MessageOf(err))
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.NewEvent(action, subject)
	event.Reason = reason
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action),
			"error", err,
			"request_id", event.RequestID,
		)
	}
}
