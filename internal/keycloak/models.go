package keycloak

import "github.com/google/uuid"

// Token is the raw token endpoint response. Unknown fields are ignored.
type Token struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// CredentialTypePassword is the only credential type we provision.
const CredentialTypePassword = "password"

// CredentialRepresentation is an initial credential attached to a new account.
type CredentialRepresentation struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// UserRepresentation is the admin API shape of a realm user.
type UserRepresentation struct {
	ID            string                     `json:"id,omitempty"`
	Username      string                     `json:"username"`
	FirstName     string                     `json:"firstName,omitempty"`
	LastName      string                     `json:"lastName,omitempty"`
	Email         string                     `json:"email,omitempty"`
	EmailVerified bool                       `json:"emailVerified,omitempty"`
	Enabled       bool                       `json:"enabled"`
	Credentials   []CredentialRepresentation `json:"credentials,omitempty"`
}

// RoleRepresentation identifies a realm role in a role mapping.
type RoleRepresentation struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}
