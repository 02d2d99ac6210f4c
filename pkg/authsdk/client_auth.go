package authsdk

import (
	"context"
	"net/http"
)

// Signup creates an account. On success the server also signs the new user
// in, so the jar holds a session afterwards.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/signup", req)
	if err != nil {
		return nil, err
	}

	var out SignupResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}

// Login exchanges credentials for a session cookie.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/session", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}

// Session returns the current session. It never fails for an anonymous
// client; check Authenticated instead.
func (c *SDKClient) Session(ctx context.Context) (*SessionResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/session", nil)
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}

// Logout ends the session on the server and drops the cookie.
func (c *SDKClient) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/auth/session", nil)
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// Me returns the signed-in user, or a 401 *APIError.
func (c *SDKClient) Me(ctx context.Context) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}
