package middleware

import (
	"context"
	"crypto"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"paralelogram/pkg/platform/httputil"
	"paralelogram/pkg/requestcontext"
)

// RolePrefix is prepended to every realm role when building authorities.
const RolePrefix = "ROLE_"

// TokenVerifier verifies a raw bearer token and returns the caller it names.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*requestcontext.Principal, error)
}

// realmClaims is the subset of Keycloak access token claims we consume.
type realmClaims struct {
	PreferredUsername string `json:"preferred_username"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// OIDCVerifier checks signature, issuer and expiry of realm-issued JWTs.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier verifies tokens against the realm JWKS, fetched lazily and
// cached by go-oidc.
func NewOIDCVerifier(ctx context.Context, issuer string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, issuer+"/protocol/openid-connect/certs")
	return newOIDCVerifier(issuer, keySet)
}

// NewStaticOIDCVerifier verifies tokens against a fixed set of public keys.
func NewStaticOIDCVerifier(issuer string, keys ...crypto.PublicKey) *OIDCVerifier {
	return newOIDCVerifier(issuer, &oidc.StaticKeySet{PublicKeys: keys})
}

func newOIDCVerifier(issuer string, keySet oidc.KeySet) *OIDCVerifier {
	// Access tokens carry the realm's "account" audience, not our client id.
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{SkipClientIDCheck: true}),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*requestcontext.Principal, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	var claims realmClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	roles := make([]string, 0, len(claims.RealmAccess.Roles))
	for _, role := range claims.RealmAccess.Roles {
		roles = append(roles, RolePrefix+role)
	}
	return &requestcontext.Principal{
		Subject:  token.Subject,
		Username: claims.PreferredUsername,
		Roles:    roles,
		Token:    rawToken,
	}, nil
}

// RequireAuth rejects requests without a verifiable bearer token and attaches
// the verified principal to the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteErrorBody(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			principal, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteErrorBody(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

// RequireRole lets the request through when the principal holds any of the
// given realm roles. It must run after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := requestcontext.PrincipalFrom(ctx)
			for _, role := range roles {
				if principal.HasRole(RolePrefix + role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "forbidden - missing role",
				"required_roles", roles,
				"username", requestcontext.Username(ctx),
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteErrorBody(w, http.StatusForbidden, "forbidden", "Insufficient role")
		})
	}
}
