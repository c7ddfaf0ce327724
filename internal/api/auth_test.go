package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserJSON = `{
	"id": "0f8fad5b-d9cb-469f-a165-70867728950e",
	"username": "alice",
	"email": "alice@example.com",
	"full_name": "Alice Example",
	"role": "user",
	"is_active": true,
	"created_at": "2024-06-20T14:45:00.123456"
}`

func TestLogin_Success(t *testing.T) {
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &gotBody))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"token":"jwt-token","user":` + testUserJSON + `}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	token, user, err := client.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, "alice", gotBody["username"])
	assert.Equal(t, "hunter2", gotBody["password"])

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "user", user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, 2024, user.CreatedAt.Year())
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, _, err := client.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegister_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)

		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bob", req.Username)
		assert.Equal(t, "bob@example.com", req.Email)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"u2","username":"bob","email":"bob@example.com","role":"user","is_active":true,"created_at":"2024-06-20T14:45:00"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	user, err := client.Register(context.Background(), RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"username already taken"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Register(context.Background(), RegisterRequest{Username: "alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "username already taken", apiErr.Message)
}

func TestMe_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(testUserJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice Example", user.FullName)
}
