package directory

import (
	"context"
	"net/http"

	"github.com/ownerdesk/ownerdesk/internal/upstream"
)

// API defines the remote operations the controller depends on. Tests swap in
// a mock; production uses HTTPAPI.
type API interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, input UserInput) error
	Update(ctx context.Context, id string, input UserInput) error
	Delete(ctx context.Context, id string) error
}

const usersPath = "/api/users"

// HTTPAPI implements API against the remote user resource.
type HTTPAPI struct {
	client *upstream.Client
}

// NewHTTPAPI constructs an HTTPAPI over the shared upstream client.
func NewHTTPAPI(client *upstream.Client) *HTTPAPI {
	return &HTTPAPI{client: client}
}

// List fetches the full collection and unwraps the envelope.
func (a *HTTPAPI) List(ctx context.Context) ([]User, error) {
	body, err := a.client.Do(ctx, http.MethodGet, usersPath, nil)
	if err != nil {
		return nil, err
	}
	return DecodeUserList(body)
}

// Create posts a new user.
func (a *HTTPAPI) Create(ctx context.Context, input UserInput) error {
	_, err := a.client.Do(ctx, http.MethodPost, usersPath, input)
	return err
}

// Update patches an existing user by id. Last write wins.
func (a *HTTPAPI) Update(ctx context.Context, id string, input UserInput) error {
	_, err := a.client.Do(ctx, http.MethodPatch, usersPath+"/"+id, input)
	return err
}

// Delete removes a user by id.
func (a *HTTPAPI) Delete(ctx context.Context, id string) error {
	_, err := a.client.Do(ctx, http.MethodDelete, usersPath+"/"+id, nil)
	return err
}

var _ API = (*HTTPAPI)(nil)
