// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values; services read them without importing net/http.
//
// Usage in services (read values):
//
//	token := requestcontext.BearerToken(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithPrincipal(ctx, &requestcontext.Principal{Token: "raw-jwt"})
package requestcontext

import (
	"context"
	"slices"
)

type (
	principalKey struct{}
	requestIDKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipal = principalKey{}
	ContextKeyRequestID = requestIDKey{}
)

// Principal is the verified caller attached by the bearer-token middleware.
type Principal struct {
	Subject  string
	Username string
	// Roles are authority names, already prefixed (e.g. "ROLE_paralelogram_admin").
	Roles []string
	// Token is the raw bearer token the principal was verified from.
	Token string
}

// HasRole reports whether the principal holds the given authority.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// -----------------------------------------------------------------------------
// Auth context
// -----------------------------------------------------------------------------

// PrincipalFrom retrieves the authenticated principal, or nil when the request
// is anonymous.
func PrincipalFrom(ctx context.Context) *Principal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal injects an authenticated principal into the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// BearerToken returns the raw token of the authenticated principal, or "".
func BearerToken(ctx context.Context) string {
	if p := PrincipalFrom(ctx); p != nil {
		return p.Token
	}
	return ""
}

// Username returns the authenticated username, or "".
func Username(ctx context.Context) string {
	if p := PrincipalFrom(ctx); p != nil {
		return p.Username
	}
	return ""
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
