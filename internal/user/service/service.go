package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"paralelogram/internal/keycloak"
	"paralelogram/internal/platform/metrics"
	"paralelogram/internal/user/models"
	dErrors "paralelogram/pkg/domain-errors"
	"paralelogram/pkg/platform/audit"
	"paralelogram/pkg/platform/sentinel"
	"paralelogram/pkg/requestcontext"
)

// UserStore persists local user records.
type UserStore interface {
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

// RoleStore resolves realm roles mirrored locally.
type RoleStore interface {
	FindByRoleName(ctx context.Context, roleName string) (*models.Role, error)
}

// IdentityProvider is the admin side of the identity provider.
type IdentityProvider interface {
	CreateUser(ctx context.Context, user keycloak.UserRepresentation) (uuid.UUID, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roles []keycloak.RoleRepresentation) (bool, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AuditPublisher emits provisioning audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	msgUnableToCreate   = "unable to create user"
	compensationTimeout = 10 * time.Second
)

// Service provisions users in the identity provider and the local store,
// keeping the two consistent.
type Service struct {
	users          UserStore
	roles          RoleStore
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

// New creates a provisioning service.
func New(users UserStore, roles RoleStore, idp IdentityProvider, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if roles == nil {
		return nil, errors.New("role store is required")
	}
	if idp == nil {
		return nil, errors.New("identity provider is required")
	}
	s := &Service{
		users:  users,
		roles:  roles,
		idp:    idp,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetUser returns the local record for userName.
func (s *Service) GetUser(ctx context.Context, userName string) (*models.User, error) {
	u, err := s.users.FindByUserName(ctx, userName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.NewUser(http.StatusBadRequest, "unable to find user "+userName)
	}
	if err != nil {
		return nil, dErrors.WrapUser(err, http.StatusInternalServerError, "unable to find user "+userName)
	}
	return u, nil
}

// AddUser creates the provider account, assigns its role and only then
// stores the local record. A failed role assignment deletes the new account.
// A failed local save also deletes it, so no local user ever points at an
// account the provider does not have.
func (s *Service) AddUser(ctx context.Context, req models.AddUserRequest) (*models.User, error) {
	requestID := requestcontext.RequestID(ctx)

	_, err := s.users.FindByUserName(ctx, req.UserName)
	switch {
	case err == nil:
		return nil, s.reject(ctx, req.UserName, "userName "+req.UserName+" already exists")
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, s.fail(ctx, req.UserName, dErrors.WrapUser(err, http.StatusInternalServerError, msgUnableToCreate))
	}

	role, err := s.roles.FindByRoleName(ctx, req.Role.Value())
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.reject(ctx, req.UserName, "invalid role "+string(req.Role))
	}
	if err != nil {
		return nil, s.fail(ctx, req.UserName, dErrors.WrapUser(err, http.StatusInternalServerError, msgUnableToCreate))
	}

	userID, err := s.idp.CreateUser(ctx, keycloak.UserRepresentation{
		Username:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Enabled:   true,
		Credentials: []keycloak.CredentialRepresentation{
			{Type: keycloak.CredentialTypePassword, Value: req.Password},
		},
	})
	if err != nil {
		return nil, s.fail(ctx, req.UserName, err)
	}
	if userID == uuid.Nil {
		return nil, s.fail(ctx, req.UserName, dErrors.NewUser(http.StatusBadRequest, msgUnableToCreate))
	}

	assigned, err := s.idp.AssignRole(ctx, userID, []keycloak.RoleRepresentation{
		{ID: role.RoleID, Name: role.RoleName},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "role assignment failed, remote account left in place",
			"user_name", req.UserName,
			"remote_user_id", userID,
			"error", err,
			"request_id", requestID,
		)
		s.emit(ctx, audit.EventRemoteUserOrphaned, req.UserName, userID, dErrors.MessageOf(err))
		return nil, s.fail(ctx, req.UserName, err)
	}
	if !assigned {
		s.compensate(ctx, req.UserName, userID)
		return nil, dErrors.NewUser(http.StatusBadRequest, msgUnableToCreate)
	}

	u := &models.User{
		UserID:    userID,
		UserName:  req.UserName,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		CreatedBy: requestcontext.Username(ctx),
	}
	if err := s.users.Save(ctx, u); err != nil {
		s.logger.ErrorContext(ctx, "local save failed after remote provisioning",
			"user_name", req.UserName,
			"remote_user_id", userID,
			"error", err,
			"request_id", requestID,
		)
		s.compensate(ctx, req.UserName, userID)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.WrapUser(err, http.StatusBadRequest, "userName "+req.UserName+" already exists")
		}
		return nil, dErrors.WrapUser(err, http.StatusInternalServerError, msgUnableToCreate)
	}

	s.metrics.ObserveProvisioning(metrics.OutcomeSuccess)
	s.emit(ctx, audit.EventUserCreated, u.UserName, userID, "")
	s.logger.InfoContext(ctx, "user provisioned",
		"user_name", u.UserName,
		"remote_user_id", userID,
		"role", role.RoleName,
		"request_id", requestID,
	)
	return u, nil
}

// compensate deletes a remote account created by a workflow that cannot
// finish. Its outcome is logged and audited but never returned. It runs
// detached from the caller's cancellation.
func (s *Service) compensate(ctx context.Context, userName string, userID uuid.UUID) {
	s.metrics.ObserveProvisioning(metrics.OutcomeCompensated)

	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	deleted, err := s.idp.DeleteUser(deleteCtx, userID)
	if err != nil || !deleted {
		s.logger.ErrorContext(ctx, "compensating delete did not remove remote account",
			"user_name", userName,
			"remote_user_id", userID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.emit(ctx, audit.EventRemoteUserOrphaned, userName, userID, "compensating delete failed")
		return
	}
	s.emit(ctx, audit.EventRemoteUserCompensated, userName, userID, "")
}

func (s *Service) reject(ctx context.Context, userName, msg string) error {
	s.metrics.ObserveProvisioning(metrics.OutcomeRejected)
	s.emit(ctx, audit.EventUserRejected, userName, uuid.Nil, msg)
	return dErrors.NewUser(http.StatusBadRequest, msg)
}

func (s *Service) fail(ctx context.Context, userName string, err error) error {
	s.metrics.ObserveProvisioning(metrics.OutcomeFailure)
	s.logger.WarnContext(ctx, "user provisioning failed",
		"user_name", userName,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventUserProvisioningFailed, userName, uuid.Nil, dErrors.MessageOf(err))
	return err
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, userName string, userID uuid.UUID, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.NewEvent(action, userName)
	if userID != uuid.Nil {
		event.RemoteUserID = userID.String()
	}
	event.ActorID = requestcontext.Username(ctx)
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
