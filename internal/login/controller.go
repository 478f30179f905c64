// Package login implements the owner sign-in flow against the remote
// authentication endpoint.
package login

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ownerdesk/ownerdesk/internal/shared"
	"github.com/ownerdesk/ownerdesk/internal/upstream"
)

// Credentials is the sign-in submission.
type Credentials struct {
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password"`
}

// Result is the successful authentication payload. Role is kept verbatim
// from the server, not from the claim sent.
type Result struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	ID    string `json:"id"`
}

// ValidationError is a client-side rule failure; it never reaches the
// network.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// AuthAPI is the remote authentication dependency.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (Result, error)
}

const loginPath = "/api/user/login"

// roleClaim is the fixed claim sent with every login attempt.
const roleClaim = "Owner"

// HTTPAuth implements AuthAPI over the upstream client.
type HTTPAuth struct {
	client *upstream.Client
}

// NewHTTPAuth constructs an HTTPAuth.
func NewHTTPAuth(client *upstream.Client) *HTTPAuth {
	return &HTTPAuth{client: client}
}

// Login posts credentials with the fixed role claim and parses the expected
// result envelope. Any other shape is a protocol violation surfaced as a
// login failure.
func (a *HTTPAuth) Login(ctx context.Context, creds Credentials) (Result, error) {
	body := struct {
		MobileNumber string `json:"mobileNumber"`
		Password     string `json:"password"`
		Role         string `json:"role"`
	}{creds.MobileNumber, creds.Password, roleClaim}

	data, err := a.client.Do(ctx, http.MethodPost, loginPath, body)
	if err != nil {
		return Result{}, err
	}

	var envelope struct {
		Result *Result `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Result == nil || envelope.Result.Token == "" {
		return Result{}, fmt.Errorf("login: unexpected response shape: %w", shared.ErrInvalidCredentials)
	}
	return *envelope.Result, nil
}

var _ AuthAPI = (*HTTPAuth)(nil)

// Controller validates credentials and runs the authentication call.
type Controller struct {
	logger *slog.Logger
	api    AuthAPI
}

// NewController builds a Controller instance.
func NewController(logger *slog.Logger, api AuthAPI) *Controller {
	return &Controller{logger: logger, api: api}
}

// SignIn checks the validation rules in order, first failure wins, and only
// then calls the authentication endpoint.
func (c *Controller) SignIn(ctx context.Context, creds Credentials) (Result, error) {
	if creds.MobileNumber == "" || creds.Password == "" {
		return Result{}, &ValidationError{Message: "Mobile number and password are required"}
	}
	if !shared.ValidMobileNumber(creds.MobileNumber) {
		return Result{}, &ValidationError{Message: "Mobile number must be exactly 10 digits"}
	}
	if !shared.StrongPassword(creds.Password) {
		return Result{}, &ValidationError{Message: "Password must be at least 8 characters with an uppercase letter, a lowercase letter and a digit"}
	}

	result, err := c.api.Login(ctx, creds)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("sign in failed", slog.Any("error", err))
		}
		return Result{}, err
	}
	return result, nil
}
