package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	dErrors "paralelogram/pkg/domain-errors"
)

// TokenSource hands out the admin bearer token and forgets it on demand.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// AdminClient calls the realm admin REST API with a token from a TokenSource.
type AdminClient struct {
	client *Client
	tokens TokenSource
}

// NewAdminClient shares client's transport, tracing and metrics.
func NewAdminClient(client *Client, tokens TokenSource) *AdminClient {
	return &AdminClient{client: client, tokens: tokens}
}

var (
	createUserCall = call{
		operation:    "create_user",
		kind:         dErrors.KindUser,
		errorMessage: "error encountered while creating user",
	}
	assignRoleCall = call{
		operation:    "assign_role",
		kind:         dErrors.KindUser,
		errorMessage: "error encountered while adding user role",
	}
	deleteUserCall = call{
		operation:    "delete_user",
		kind:         dErrors.KindUser,
		errorMessage: "error encountered while deleting user",
	}
)

var errMissingLocation = errors.New("created user response has no usable Location header")

// CreateUser creates a realm account and returns the id the provider
// assigned, parsed from the last path segment of the Location header.
func (a *AdminClient) CreateUser(ctx context.Context, user UserRepresentation) (id uuid.UUID, err error) {
	defer func() { a.client.observe(createUserCall.operation, err) }()

	body, err := json.Marshal(user)
	if err != nil {
		return uuid.Nil, dErrors.WrapUser(err, http.StatusInternalServerError, createUserCall.errorMessage)
	}
	resp, err := a.do(ctx, createUserCall, http.MethodPost, a.client.adminURL("users"), body)
	if err != nil {
		return uuid.Nil, err
	}
	drain(resp)

	if resp.StatusCode != http.StatusCreated {
		return uuid.Nil, dErrors.NewUser(resp.StatusCode, "unable to create user")
	}
	id, err = idFromLocation(resp.Header.Get("Location"))
	if err != nil {
		return uuid.Nil, dErrors.WrapUser(err, http.StatusBadGateway, "unable to create user")
	}
	return id, nil
}

// AssignRole maps realm roles onto a user. Only 204 counts as assigned; any
// other status below 400 yields false without an error.
func (a *AdminClient) AssignRole(ctx context.Context, userID uuid.UUID, roles []RoleRepresentation) (assigned bool, err error) {
	defer func() { a.client.observe(assignRoleCall.operation, err) }()

	body, err := json.Marshal(roles)
	if err != nil {
		return false, dErrors.WrapUser(err, http.StatusInternalServerError, assignRoleCall.errorMessage)
	}
	endpoint := a.client.adminURL("users", userID.String(), "role-mappings", "realm")
	resp, err := a.do(ctx, assignRoleCall, http.MethodPost, endpoint, body)
	if err != nil {
		return false, err
	}
	drain(resp)
	return resp.StatusCode == http.StatusNoContent, nil
}

// DeleteUser removes a realm account. Only 204 counts as deleted.
func (a *AdminClient) DeleteUser(ctx context.Context, userID uuid.UUID) (deleted bool, err error) {
	defer func() { a.client.observe(deleteUserCall.operation, err) }()

	resp, err := a.do(ctx, deleteUserCall, http.MethodDelete, a.client.adminURL("users", userID.String()), nil)
	if err != nil {
		return false, err
	}
	drain(resp)
	return resp.StatusCode == http.StatusNoContent, nil
}

func (a *AdminClient) do(ctx context.Context, cl call, method, endpoint string, body []byte) (*http.Response, error) {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := newRequest(ctx, method, endpoint, reader)
	if err != nil {
		return nil, dErrors.WrapUser(err, http.StatusInternalServerError, cl.errorMessage)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.send(ctx, cl, req)
	if de, ok := dErrors.As(err); ok && de.Status == http.StatusUnauthorized {
		// The cached admin token was rejected; the next call fetches a new one.
		a.tokens.Invalidate(ctx)
	}
	return resp, err
}

func newRequest(ctx context.Context, method, endpoint string, body *bytes.Reader) (*http.Request, error) {
	if body == nil {
		return http.NewRequestWithContext(ctx, method, endpoint, nil)
	}
	return http.NewRequestWithContext(ctx, method, endpoint, body)
}

func idFromLocation(location string) (uuid.UUID, error) {
	location = strings.TrimRight(location, "/")
	if location == "" {
		return uuid.Nil, errMissingLocation
	}
	segment := location[strings.LastIndex(location, "/")+1:]
	id, err := uuid.Parse(segment)
	if err != nil {
		return uuid.Nil, errors.Join(errMissingLocation, err)
	}
	return id, nil
}
