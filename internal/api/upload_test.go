package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFile_MultipartFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		content, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "notes.txt", header.Filename)
		assert.Equal(t, "text/plain", header.Header.Get("Content-Type"))
		assert.Equal(t, "hello world", string(content))
		assert.Equal(t, "f1", r.FormValue("parent_folder_id"))
		assert.Equal(t, "meeting notes", r.FormValue("description"))
		assert.Equal(t, "work,meetings", r.FormValue("tags"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(testDocJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	doc, err := client.UploadFile(context.Background(), UploadRequest{
		Name:           "notes.txt",
		Content:        strings.NewReader("hello world"),
		ContentType:    "text/plain",
		ParentFolderID: "f1",
		Description:    "meeting notes",
		Tags:           []string{"work", "meetings"},
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
}

func TestUploadFile_OmitsEmptyFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.NotContains(t, r.MultipartForm.Value, "parent_folder_id")
		assert.NotContains(t, r.MultipartForm.Value, "description")
		assert.NotContains(t, r.MultipartForm.Value, "tags")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()

		assert.Equal(t, "application/octet-stream", header.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(testDocJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.UploadFile(context.Background(), UploadRequest{
		Name:    "raw.bin",
		Content: strings.NewReader("data"),
	})
	require.NoError(t, err)
}

func TestUploadFile_RetryReplaysBody(t *testing.T) {
	var calls atomic.Int32

	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		sizes = append(sizes, len(b))

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(testDocJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.UploadFile(context.Background(), UploadRequest{
		Name:    "retry.txt",
		Content: strings.NewReader("payload"),
	})
	require.NoError(t, err)

	// The buffered body means the second attempt is byte-for-byte complete
	// even though the content reader was consumed on the first.
	require.Len(t, sizes, 2)
	assert.Equal(t, sizes[0], sizes[1])
	assert.Positive(t, sizes[1])
}

func TestUploadFile_ValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"file too large"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.UploadFile(context.Background(), UploadRequest{
		Name:    "huge.bin",
		Content: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
