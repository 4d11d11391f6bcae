// Package tokencache keeps the client-credentials token used for admin calls.
//
// A cached token is trusted only after the provider accepts it on the
// userinfo endpoint. When that check fails or the slot is empty, a new token is
// fetched and stored. Concurrent refreshes share a single fetch.
package tokencache

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"paralelogram/internal/keycloak"
	"paralelogram/internal/platform/metrics"
	dErrors "paralelogram/pkg/domain-errors"
	"paralelogram/pkg/platform/audit"
)

// IdentityProvider is the subset of keycloak.Client the cache needs.
type IdentityProvider interface {
	ClientCredentialsGrant(ctx context.Context, clientID, clientSecret string) (*keycloak.Token, error)
	FetchUserInfo(ctx context.Context, bearerToken string) (bool, error)
}

const (
	refreshKey = "client_credentials"
	// refreshTimeout bounds a shared fetch, which no single caller can cancel.
	refreshTimeout = 15 * time.Second
)

// Cache implements keycloak.TokenSource.
type Cache struct {
	idp          IdentityProvider
	slot         Slot
	clientID     string
	clientSecret string
	group        singleflight.Group
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditor      audit.Publisher
}

// Option configures a Cache.
type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func WithAuditor(p audit.Publisher) Option {
	return func(c *Cache) { c.auditor = p }
}

// New builds a cache for the given confidential client. A nil slot keeps the
// token in memory.
func New(idp IdentityProvider, slot Slot, clientID, clientSecret string, opts ...Option) *Cache {
	if slot == nil {
		slot = NewMemorySlot()
	}
	c := &Cache{
		idp:          idp,
		slot:         slot,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ keycloak.TokenSource = (*Cache)(nil)

// Token returns a token the provider currently accepts.
func (c *Cache) Token(ctx context.Context) (string, error) {
	cached, err := c.slot.Load(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "admin token slot unreadable, fetching a new token", "error", err)
		cached = ""
	}

	if strings.TrimSpace(cached) != "" {
		_, checkErr := c.idp.FetchUserInfo(ctx, cached)
		if checkErr == nil {
			return cached, nil
		}
		c.logger.DebugContext(ctx, "cached admin token rejected", "error", checkErr)
	}

	// The fetch is shared, so it runs detached; each caller still stops
	// waiting when its own context ends.
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refresh(refreshCtx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate empties the slot so the next Token call fetches a new token.
func (c *Cache) Invalidate(ctx context.Context) {
	if err := c.slot.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "failed to clear admin token slot", "error", err)
	}
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	t, err := c.idp.ClientCredentialsGrant(ctx, c.clientID, c.clientSecret)
	if err != nil {
		return "", err
	}
	if t.AccessToken == "" {
		return "", dErrors.NewUser(http.StatusBadGateway, "unable to get client token")
	}
	c.metrics.IncrementAdminTokenRefreshes()

	if err := c.slot.Store(ctx, t.AccessToken); err != nil {
		c.logger.WarnContext(ctx, "failed to store admin token", "error", err)
	}
	if c.auditor != nil {
		_ = c.auditor.Emit(ctx, audit.NewEvent(audit.EventAdminTokenRefreshed, c.clientID))
	}
	c.logger.InfoContext(ctx, "admin token refreshed", "client_id", c.clientID)
	return t.AccessToken, nil
}
