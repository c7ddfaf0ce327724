package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorConfig_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onlyoffice/d1/config", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"config": {"document": {"key": "d1-v2"}, "editorConfig": {"mode": "edit"}},
			"token": "signed-jwt",
			"onlyoffice_server": "https://office.example.com"
		}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	cfg, err := client.EditorConfig(context.Background(), "d1")
	require.NoError(t, err)

	assert.Equal(t, "signed-jwt", cfg.Token)
	assert.Equal(t, "https://office.example.com", cfg.Server)

	// The config blob passes through untouched.
	doc, ok := cfg.Config["document"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "d1-v2", doc["key"])
}

func TestEditorConfig_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"write permission required"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.EditorConfig(context.Background(), "d1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}
