package testutil

import (
	"net/http"

	"paralelogram/pkg/requestcontext"
)

// WithPrincipal attaches a verified caller to the request, as the bearer
// middleware would, and sets the matching Authorization header. Roles are
// given without the ROLE_ prefix.
func WithPrincipal(req *http.Request, username, token string, roles ...string) *http.Request {
	authorities := make([]string, 0, len(roles))
	for _, r := range roles {
		authorities = append(authorities, "ROLE_"+r)
	}
	ctx := requestcontext.WithPrincipal(req.Context(), &requestcontext.Principal{
		Subject:  username,
		Username: username,
		Roles:    authorities,
		Token:    token,
	})
	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
