package keycloak

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paralelogram/internal/platform/config"
	"paralelogram/internal/platform/metrics"
	dErrors "paralelogram/pkg/domain-errors"
)

const (
	testRealm        = "paralelogram"
	testClientID     = "test_client"
	testClientSecret = "test_secret"
	tokenPath        = "/realms/paralelogram/protocol/openid-connect/token"
	userInfoPath     = "/realms/paralelogram/protocol/openid-connect/userinfo"
	usersPath        = "/admin/realms/paralelogram/users"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.Keycloak{
		BaseURL:      srv.URL,
		Realm:        testRealm,
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Timeout:      2 * time.Second,
	}, opts...)
}

func requireFailure(t *testing.T, err error, kind dErrors.Kind, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	de, ok := dErrors.As(err)
	require.True(t, ok, "expected domain error, got %T", err)
	assert.Equal(t, kind, de.Kind)
	assert.Equal(t, status, de.Status)
	assert.Equal(t, msg, de.Message)
}

func writeToken(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"access_token":"at","expires_in":300,"refresh_token":"rt","refresh_expires_in":1800,"token_type":"Bearer","not-before-policy":0}`)
}

func TestPasswordGrant(t *testing.T) {
	t.Run("returns token on 200", func(t *testing.T) {
		var form url.Values
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, tokenPath, r.URL.Path)
			require.NoError(t, r.ParseForm())
			form = r.PostForm
			writeToken(w)
		})

		token, err := c.PasswordGrant(context.Background(), "alice", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, &Token{
			AccessToken:      "at",
			ExpiresIn:        300,
			RefreshToken:     "rt",
			RefreshExpiresIn: 1800,
			TokenType:        "Bearer",
		}, token)
		assert.Equal(t, "password", form.Get("grant_type"))
		assert.Equal(t, "openid", form.Get("scope"))
		assert.Equal(t, testClientID, form.Get("client_id"))
		assert.Equal(t, testClientSecret, form.Get("client_secret"))
		assert.Equal(t, "alice", form.Get("username"))
		assert.Equal(t, "s3cret", form.Get("password"))
	})

	t.Run("error status keeps the provider status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid user credentials"}`)
		})

		token, err := c.PasswordGrant(context.Background(), "alice", "wrong")
		assert.Nil(t, token)
		requireFailure(t, err, dErrors.KindAuth, http.StatusUnauthorized, "error encountered while getting access token")
		assert.NotContains(t, dErrors.MessageOf(err), "Invalid user credentials")
	})

	t.Run("non-200 success status is not a token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		_, err := c.PasswordGrant(context.Background(), "alice", "s3cret")
		requireFailure(t, err, dErrors.KindAuth, http.StatusNoContent, "unable to get access token")
	})

	t.Run("unreadable body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "not json")
		})

		_, err := c.PasswordGrant(context.Background(), "alice", "s3cret")
		requireFailure(t, err, dErrors.KindAuth, http.StatusBadGateway, "unable to get access token")
	})

	t.Run("unreachable provider reports 503", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := New(config.Keycloak{BaseURL: srv.URL, Realm: testRealm, ClientID: testClientID, ClientSecret: testClientSecret})

		_, err := c.PasswordGrant(context.Background(), "alice", "s3cret")
		requireFailure(t, err, dErrors.KindAuth, http.StatusServiceUnavailable, "error encountered while getting access token")
	})
}

func TestRefreshGrant(t *testing.T) {
	t.Run("sends the refresh token", func(t *testing.T) {
		var form url.Values
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			form = r.PostForm
			writeToken(w)
		})

		token, err := c.RefreshGrant(context.Background(), "old-refresh")
		require.NoError(t, err)
		assert.Equal(t, "at", token.AccessToken)
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "old-refresh", form.Get("refresh_token"))
		assert.Equal(t, "openid", form.Get("scope"))
	})

	t.Run("400 is an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		_, err := c.RefreshGrant(context.Background(), "expired")
		requireFailure(t, err, dErrors.KindAuth, http.StatusBadRequest, "error encountered while refreshing token")
	})

	t.Run("201 is not a refresh", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})

		_, err := c.RefreshGrant(context.Background(), "rt")
		requireFailure(t, err, dErrors.KindAuth, http.StatusCreated, "unable to refresh user token")
	})
}

func TestClientCredentialsGrant(t *testing.T) {
	t.Run("uses the given client", func(t *testing.T) {
		var form url.Values
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			form = r.PostForm
			writeToken(w)
		})

		_, err := c.ClientCredentialsGrant(context.Background(), "admin-cli", "admin-secret")
		require.NoError(t, err)
		assert.Equal(t, "client_credentials", form.Get("grant_type"))
		assert.Equal(t, "admin-cli", form.Get("client_id"))
		assert.Equal(t, "admin-secret", form.Get("client_secret"))
		assert.Empty(t, form.Get("scope"))
	})

	t.Run("failures are user failures", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := c.ClientCredentialsGrant(context.Background(), testClientID, "bad")
		requireFailure(t, err, dErrors.KindUser, http.StatusUnauthorized, "error encountered while getting client token")
	})

	t.Run("non-200 below 400", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})

		_, err := c.ClientCredentialsGrant(context.Background(), testClientID, testClientSecret)
		requireFailure(t, err, dErrors.KindUser, http.StatusAccepted, "unable to get client token")
	})
}

func TestFetchUserInfo(t *testing.T) {
	t.Run("200 means valid", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, userInfoPath, r.URL.Path)
			assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"sub":"1","preferred_username":"alice"}`)
		})

		valid, err := c.FetchUserInfo(context.Background(), "caller-token")
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("401 is an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		valid, err := c.FetchUserInfo(context.Background(), "expired")
		assert.False(t, valid)
		requireFailure(t, err, dErrors.KindAuth, http.StatusUnauthorized, "unable to get logged in userinfo")
	})

	t.Run("other success status is an invalid token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		valid, err := c.FetchUserInfo(context.Background(), "token")
		assert.False(t, valid)
		requireFailure(t, err, dErrors.KindAuth, http.StatusNoContent, "invalid token")
	})
}

func TestIdentityProviderCallsAreCounted(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			writeToken(w)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}, WithMetrics(m))

	_, err := c.PasswordGrant(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	_, err = c.PasswordGrant(context.Background(), "alice", "s3cret")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityProviderCalls.WithLabelValues("password_grant", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityProviderCalls.WithLabelValues("password_grant", metrics.OutcomeFailure)))
}

type stubTokens struct {
	token         string
	err           error
	invalidations int
}

func (s *stubTokens) Token(context.Context) (string, error) { return s.token, s.err }

func (s *stubTokens) Invalidate(context.Context) { s.invalidations++ }

func newTestAdmin(t *testing.T, handler http.HandlerFunc) (*AdminClient, *stubTokens) {
	t.Helper()
	tokens := &stubTokens{token: "admin-token"}
	return NewAdminClient(newTestClient(t, handler), tokens), tokens
}

func sampleUser() UserRepresentation {
	return UserRepresentation{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "alice@example.com",
		Enabled:   true,
		Credentials: []CredentialRepresentation{
			{Type: CredentialTypePassword, Value: "s3cret"},
		},
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("returns id from Location", func(t *testing.T) {
		userID := uuid.New()
		var received UserRepresentation
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, usersPath, r.URL.Path)
			assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Location", "http://localhost:8180/admin/realms/paralelogram/users/"+userID.String())
			w.WriteHeader(http.StatusCreated)
		})

		id, err := admin.CreateUser(context.Background(), sampleUser())
		require.NoError(t, err)
		assert.Equal(t, userID, id)
		assert.Equal(t, sampleUser(), received, "representation must reach the provider unchanged")
	})

	t.Run("401 invalidates the admin token", func(t *testing.T) {
		admin, tokens := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		id, err := admin.CreateUser(context.Background(), sampleUser())
		assert.Equal(t, uuid.Nil, id)
		requireFailure(t, err, dErrors.KindUser, http.StatusUnauthorized, "error encountered while creating user")
		assert.Equal(t, 1, tokens.invalidations)
	})

	t.Run("409 keeps the admin token", func(t *testing.T) {
		admin, tokens := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
		})

		_, err := admin.CreateUser(context.Background(), sampleUser())
		requireFailure(t, err, dErrors.KindUser, http.StatusConflict, "error encountered while creating user")
		assert.Zero(t, tokens.invalidations)
	})

	t.Run("204 is not a creation", func(t *testing.T) {
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		_, err := admin.CreateUser(context.Background(), sampleUser())
		requireFailure(t, err, dErrors.KindUser, http.StatusNoContent, "unable to create user")
	})

	t.Run("201 without a usable Location", func(t *testing.T) {
		for _, location := range []string{"", "http://localhost/admin/realms/paralelogram/users/not-a-uuid"} {
			admin, _ := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
				if location != "" {
					w.Header().Set("Location", location)
				}
				w.WriteHeader(http.StatusCreated)
			})

			_, err := admin.CreateUser(context.Background(), sampleUser())
			requireFailure(t, err, dErrors.KindUser, http.StatusBadGateway, "unable to create user")
		}
	})

	t.Run("token source failure skips the call", func(t *testing.T) {
		var called bool
		admin, tokens := newTestAdmin(t, func(http.ResponseWriter, *http.Request) { called = true })
		tokens.err = dErrors.NewUser(http.StatusUnauthorized, "error encountered while getting client token")

		_, err := admin.CreateUser(context.Background(), sampleUser())
		requireFailure(t, err, dErrors.KindUser, http.StatusUnauthorized, "error encountered while getting client token")
		assert.False(t, called)
	})
}

func TestAssignRole(t *testing.T) {
	userID := uuid.New()
	roleID := uuid.New()
	roles := []RoleRepresentation{{ID: roleID, Name: "paralelogram_admin"}}

	t.Run("204 means assigned", func(t *testing.T) {
		var received []RoleRepresentation
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, usersPath+"/"+userID.String()+"/role-mappings/realm", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusNoContent)
		})

		ok, err := admin.AssignRole(context.Background(), userID, roles)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, roles, received)
	})

	t.Run("201 means not assigned", func(t *testing.T) {
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})

		ok, err := admin.AssignRole(context.Background(), userID, roles)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("500 is an error", func(t *testing.T) {
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		ok, err := admin.AssignRole(context.Background(), userID, roles)
		assert.False(t, ok)
		requireFailure(t, err, dErrors.KindUser, http.StatusInternalServerError, "error encountered while adding user role")
	})
}

func TestDeleteUser(t *testing.T) {
	userID := uuid.New()

	t.Run("204 means deleted", func(t *testing.T) {
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, usersPath+"/"+userID.String(), r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		ok, err := admin.DeleteUser(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("200 means not deleted", func(t *testing.T) {
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		ok, err := admin.DeleteUser(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("404 is an error", func(t *testing.T) {
		admin, _ := newTestAdmin(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := admin.DeleteUser(context.Background(), userID)
		requireFailure(t, err, dErrors.KindUser, http.StatusNotFound, "error encountered while deleting user")
	})
}
