package models

import "paralelogram/internal/keycloak"

// UserCredentials is the login request body. It is never persisted.
type UserCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccessToken is the token pair handed back to callers.
type AccessToken struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewAccessToken keeps only the fields callers are allowed to see.
func NewAccessToken(t *keycloak.Token) *AccessToken {
	return &AccessToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
}

// TokenStatus reports whether the caller's bearer token is still accepted.
type TokenStatus struct {
	Valid bool `json:"valid"`
}
