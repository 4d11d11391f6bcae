// Package keycloak talks to the identity provider: the realm token and
// userinfo endpoints (Client) and the admin REST API (AdminClient).
//
// Every operation has exactly one success status. Any other status below 400
// is reported as the operation's "unable to" failure carrying that status.
// Statuses of 400 and above, and transport errors (reported as 503), become
// the operation's "error encountered" failure. Provider error bodies are
// drained and discarded.
package keycloak

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paralelogram/internal/platform/config"
	"paralelogram/internal/platform/metrics"
	dErrors "paralelogram/pkg/domain-errors"
)

const (
	tracerName = "paralelogram/internal/keycloak"

	defaultTimeout = 10 * time.Second

	// maxResponseBodySize caps how much of a provider response we read.
	maxResponseBodySize = 1 << 20
)

// StatusError is the cause attached to failures produced by an unexpected
// provider status.
type StatusError struct {
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: identity provider responded with status %d", e.Operation, e.StatusCode)
}

// Client performs token grants and userinfo lookups against one realm.
type Client struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for provider failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics counts every provider call.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New builds a Client from the realm coordinates in cfg.
func New(cfg config.Keycloak, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		realm:        cfg.Realm,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       slog.Default(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID is the confidential client this service authenticates as.
func (c *Client) ClientID() string { return c.clientID }

// ClientSecret is the secret paired with ClientID.
func (c *Client) ClientSecret() string { return c.clientSecret }

func (c *Client) realmURL(parts ...string) string {
	return c.baseURL + "/realms/" + url.PathEscape(c.realm) + "/" + strings.Join(parts, "/")
}

func (c *Client) adminURL(parts ...string) string {
	return c.baseURL + "/admin/realms/" + url.PathEscape(c.realm) + "/" + strings.Join(parts, "/")
}

func (c *Client) tokenURL() string {
	return c.realmURL("protocol", "openid-connect", "token")
}

func (c *Client) userInfoURL() string {
	return c.realmURL("protocol", "openid-connect", "userinfo")
}

// call describes how one operation reports failures.
type call struct {
	operation string
	kind      dErrors.Kind
	// errorMessage is used for provider statuses >= 400 and transport errors.
	errorMessage string
}

// send executes req inside a client span. On transport errors and statuses
// of 400 or more it returns the operation's failure and closes the body;
// otherwise the caller owns resp.Body.
func (c *Client) send(ctx context.Context, cl call, req *http.Request) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "keycloak."+cl.operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("keycloak.realm", c.realm),
		))
	defer span.End()

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		c.logger.WarnContext(ctx, "identity provider unreachable",
			"operation", cl.operation,
			"error", err,
		)
		return nil, dErrors.Wrap(err, cl.kind, http.StatusServiceUnavailable, cl.errorMessage)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		drain(resp)
		statusErr := &StatusError{Operation: cl.operation, StatusCode: resp.StatusCode}
		span.SetStatus(codes.Error, statusErr.Error())
		c.logger.WarnContext(ctx, "identity provider returned error status",
			"operation", cl.operation,
			"status", resp.StatusCode,
		)
		return nil, dErrors.Wrap(statusErr, cl.kind, resp.StatusCode, cl.errorMessage)
	}
	return resp, nil
}

// observe counts one finished provider call.
func (c *Client) observe(operation string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	c.metrics.ObserveIdentityProviderCall(operation, outcome)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
	_ = resp.Body.Close()
}
