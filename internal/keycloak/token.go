package keycloak

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	dErrors "paralelogram/pkg/domain-errors"
)

const (
	grantTypePassword          = "password"
	grantTypeRefreshToken      = "refresh_token"
	grantTypeClientCredentials = "client_credentials"
	scopeOpenID                = "openid"
)

type grant struct {
	call
	// unableMessage is used for non-success statuses below 400 and unreadable bodies.
	unableMessage string
}

var (
	passwordGrant = grant{
		call: call{
			operation:    "password_grant",
			kind:         dErrors.KindAuth,
			errorMessage: "error encountered while getting access token",
		},
		unableMessage: "unable to get access token",
	}
	refreshGrant = grant{
		call: call{
			operation:    "refresh_grant",
			kind:         dErrors.KindAuth,
			errorMessage: "error encountered while refreshing token",
		},
		unableMessage: "unable to refresh user token",
	}
	clientCredentialsGrant = grant{
		call: call{
			operation:    "client_credentials_grant",
			kind:         dErrors.KindUser,
			errorMessage: "error encountered while getting client token",
		},
		unableMessage: "unable to get client token",
	}
	userInfo = grant{
		call: call{
			operation:    "userinfo",
			kind:         dErrors.KindAuth,
			errorMessage: "unable to get logged in userinfo",
		},
		unableMessage: "invalid token",
	}
)

// PasswordGrant exchanges user credentials for a token pair.
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{
		"grant_type":    {grantTypePassword},
		"scope":         {scopeOpenID},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"username":      {username},
		"password":      {password},
	}
	return c.requestToken(ctx, passwordGrant, form)
}

// RefreshGrant exchanges a refresh token for a new token pair.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"grant_type":    {grantTypeRefreshToken},
		"scope":         {scopeOpenID},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, refreshGrant, form)
}

// ClientCredentialsGrant obtains a service token for the given client.
// Failures are reported as UserFailure since only the admin path uses it.
func (c *Client) ClientCredentialsGrant(ctx context.Context, clientID, clientSecret string) (*Token, error) {
	form := url.Values{
		"grant_type":    {grantTypeClientCredentials},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	return c.requestToken(ctx, clientCredentialsGrant, form)
}

// FetchUserInfo reports whether the provider accepts bearerToken. Any answer
// other than 200 is a failure; the result is true whenever err is nil.
func (c *Client) FetchUserInfo(ctx context.Context, bearerToken string) (valid bool, err error) {
	defer func() { c.observe(userInfo.operation, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL(), nil)
	if err != nil {
		return false, dErrors.Wrap(err, userInfo.kind, http.StatusInternalServerError, userInfo.errorMessage)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(ctx, userInfo.call, req)
	if err != nil {
		return false, err
	}
	drain(resp)
	if resp.StatusCode != http.StatusOK {
		return false, dErrors.New(userInfo.kind, resp.StatusCode, userInfo.unableMessage)
	}
	return true, nil
}

func (c *Client) requestToken(ctx context.Context, g grant, form url.Values) (token *Token, err error) {
	defer func() { c.observe(g.operation, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, dErrors.Wrap(err, g.kind, http.StatusInternalServerError, g.errorMessage)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(ctx, g.call, req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(g.kind, resp.StatusCode, g.unableMessage)
	}

	var t Token
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&t); err != nil {
		c.logger.WarnContext(ctx, "unreadable token response", "operation", g.operation, "error", err)
		return nil, dErrors.Wrap(err, g.kind, http.StatusBadGateway, g.unableMessage)
	}
	return &t, nil
}
