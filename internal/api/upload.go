package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// UploadRequest describes a file upload. Content is read fully while the
// multipart body is assembled; buffering the whole request keeps retries
// safe because every attempt replays identical bytes.
type UploadRequest struct {
	Name           string
	Content        io.Reader
	ContentType    string // defaults to application/octet-stream
	ParentFolderID string // empty = root
	Description    string
	Tags           []string
}

// UploadFile uploads a file as multipart form data and returns the created
// document node. The name is sent as the multipart filename; parent folder,
// description, and tags travel as ordinary form fields.
func (c *Client) UploadFile(ctx context.Context, req UploadRequest) (*Document, error) {
	c.logger.Info("uploading file",
		slog.String("name", req.Name),
		slog.String("parent_folder_id", req.ParentFolderID),
	)

	body, contentType, err := buildUploadBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/documents/upload", contentType, body, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := c.decodeDocument(resp.Body, "upload")
	if err != nil {
		return nil, err
	}

	c.logger.Debug("upload complete",
		slog.String("document_id", doc.ID),
		slog.Int64("file_size", doc.FileSize),
	)

	return doc, nil
}

// buildUploadBody assembles the multipart payload for an upload request.
func buildUploadBody(req UploadRequest) ([]byte, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	part, err := createFilePart(w, req.Name, contentType)
	if err != nil {
		return nil, "", fmt.Errorf("api: creating upload part: %w", err)
	}

	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, "", fmt.Errorf("api: reading upload content: %w", err)
	}

	if req.ParentFolderID != "" {
		if err := w.WriteField("parent_folder_id", req.ParentFolderID); err != nil {
			return nil, "", fmt.Errorf("api: writing parent_folder_id field: %w", err)
		}
	}

	if req.Description != "" {
		if err := w.WriteField("description", req.Description); err != nil {
			return nil, "", fmt.Errorf("api: writing description field: %w", err)
		}
	}

	// The server splits the tags field on commas.
	if len(req.Tags) > 0 {
		if err := w.WriteField("tags", strings.Join(req.Tags, ",")); err != nil {
			return nil, "", fmt.Errorf("api: writing tags field: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("api: finalizing multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// createFilePart adds the file part with an explicit per-part content type.
// multipart.Writer.CreateFormFile hardcodes application/octet-stream, so the
// header is built by hand.
func createFilePart(w *multipart.Writer, name, contentType string) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)

	return w.CreatePart(header)
}
