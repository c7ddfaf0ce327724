package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// userResponse mirrors the API user JSON exactly.
// Unexported; callers use User via toUser() normalization.
type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// toUser normalizes an API user response into our User type.
func (u *userResponse) toUser(logger *slog.Logger) User {
	return User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: parseTimestamp(u.CreatedAt, "created_at", u.ID, logger),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Login exchanges a username and password for a bearer credential and the
// authenticated user's identity. Invalid credentials surface as
// ErrUnauthorized; the caller decides whether that means a failed login
// attempt or an expired session.
func (c *Client) Login(ctx context.Context, username, password string) (string, *User, error) {
	c.logger.Info("logging in", slog.String("username", username))

	bodyBytes, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", nil, fmt.Errorf("api: marshaling login request: %w", err)
	}

	// 401 here means the password was rejected, not that a session expired, so
	// the forced-logout hook is suppressed for this call.
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", contentTypeJSON, bodyBytes, false)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", nil, fmt.Errorf("api: decoding login response: %w", err)
	}

	user := lr.User.toUser(c.logger)

	return lr.Token, &user, nil
}

// Register creates a new account. It does not log the new user in.
// Duplicate usernames or emails and malformed fields surface as ErrValidation.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	c.logger.Info("registering account",
		slog.String("username", req.Username),
		slog.String("email", req.Email),
	)

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("api: marshaling register request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/auth/register", bodyBytes)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ur userResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("api: decoding register response: %w", err)
	}

	user := ur.toUser(c.logger)

	return &user, nil
}

// Me returns the identity bound to the current credential.
func (c *Client) Me(ctx context.Context) (*User, error) {
	c.logger.Debug("fetching current identity")

	resp, err := c.Do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ur userResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("api: decoding identity response: %w", err)
	}

	user := ur.toUser(c.logger)

	return &user, nil
}
