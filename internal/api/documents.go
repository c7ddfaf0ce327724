package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// defaultListLimit is the page size used when the caller does not specify one.
const defaultListLimit = 100

// documentResponse mirrors the API document JSON exactly.
// Unexported; callers use Document via toDocument() normalization.
type documentResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	FilePath       string         `json:"file_path"`
	FileSize       int64          `json:"file_size"`
	MimeType       string         `json:"mime_type"`
	Version        int            `json:"version"`
	Status         string         `json:"status"`
	OwnerID        string         `json:"owner_id"`
	ParentFolderID string         `json:"parent_folder_id"`
	IsFolder       bool           `json:"is_folder"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"metadata"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
	DeletedAt      string         `json:"deleted_at"`
}

// toDocument normalizes an API document response into our Document type.
func (d *documentResponse) toDocument(logger *slog.Logger) Document {
	return Document{
		ID:             d.ID,
		Name:           normalizeName(d.Name),
		Description:    d.Description,
		FilePath:       d.FilePath,
		FileSize:       d.FileSize,
		MimeType:       d.MimeType,
		Version:        d.Version,
		Status:         d.Status,
		OwnerID:        d.OwnerID,
		ParentFolderID: d.ParentFolderID,
		IsFolder:       d.IsFolder,
		Tags:           d.Tags,
		Metadata:       d.Metadata,
		CreatedAt:      parseTimestamp(d.CreatedAt, "created_at", d.ID, logger),
		UpdatedAt:      parseTimestamp(d.UpdatedAt, "updated_at", d.ID, logger),
		DeletedAt:      parseTimestamp(d.DeletedAt, "deleted_at", d.ID, logger),
	}
}

// ListOptions control pagination and folder scoping for ListDocuments.
// A zero FolderID lists the root.
type ListOptions struct {
	FolderID string
	Limit    int
	Offset   int
}

type createFolderRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	ParentFolderID string `json:"parent_folder_id,omitempty"`
}

// UpdateRequest is a partial document update. Nil fields are left unchanged
// on the server.
type UpdateRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type moveRequest struct {
	TargetFolderID *string `json:"target_folder_id"`
}

type deleteResponse struct {
	Message string `json:"message"`
}

// decodeDocument decodes a single-document response body.
func (c *Client) decodeDocument(body io.Reader, op string) (*Document, error) {
	var dr documentResponse
	if err := json.NewDecoder(body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("api: decoding %s response: %w", op, err)
	}

	doc := dr.toDocument(c.logger)

	return &doc, nil
}

// ListDocuments returns one page of children of a folder (root when
// opts.FolderID is empty). The listing excludes soft-deleted nodes.
func (c *Client) ListDocuments(ctx context.Context, opts ListOptions) ([]Document, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(opts.Offset))

	if opts.FolderID != "" {
		q.Set("folder_id", opts.FolderID)
	}

	c.logger.Debug("listing documents",
		slog.String("folder_id", opts.FolderID),
		slog.Int("limit", limit),
		slog.Int("offset", opts.Offset),
	)

	resp, err := c.Do(ctx, http.MethodGet, "/documents?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw []documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("api: decoding documents response: %w", err)
	}

	docs := make([]Document, 0, len(raw))
	for i := range raw {
		docs = append(docs, raw[i].toDocument(c.logger))
	}

	c.logger.Debug("listed documents", slog.Int("count", len(docs)))

	return docs, nil
}

// GetDocument retrieves a single document or folder by ID.
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	c.logger.Debug("getting document", slog.String("document_id", id))

	resp, err := c.Do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.decodeDocument(resp.Body, "document")
}

// CreateFolder creates a folder under parentFolderID (root when empty).
func (c *Client) CreateFolder(ctx context.Context, name, description, parentFolderID string) (*Document, error) {
	c.logger.Info("creating folder",
		slog.String("name", name),
		slog.String("parent_folder_id", parentFolderID),
	)

	bodyBytes, err := json.Marshal(createFolderRequest{
		Name:           name,
		Description:    description,
		ParentFolderID: parentFolderID,
	})
	if err != nil {
		return nil, fmt.Errorf("api: marshaling create folder request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/folders", bodyBytes)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.decodeDocument(resp.Body, "create folder")
}

// UpdateDocument applies a partial update to a document's name, description,
// or tags. Updating a file bumps its version on the server.
func (c *Client) UpdateDocument(ctx context.Context, id string, req UpdateRequest) (*Document, error) {
	c.logger.Info("updating document", slog.String("document_id", id))

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("api: marshaling update request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPut, "/documents/"+url.PathEscape(id), bodyBytes)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.decodeDocument(resp.Body, "update")
}

// DeleteDocument soft-deletes a document or folder.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	c.logger.Info("deleting document", slog.String("document_id", id))

	resp, err := c.Do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var dr deleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("api: decoding delete response: %w", err)
	}

	c.logger.Debug("document deleted",
		slog.String("document_id", id),
		slog.String("message", dr.Message),
	)

	return nil
}

// MoveDocument reparents a document. An empty targetFolderID moves it to the
// root. The server rejects moves that would make a folder its own ancestor.
func (c *Client) MoveDocument(ctx context.Context, id, targetFolderID string) (*Document, error) {
	c.logger.Info("moving document",
		slog.String("document_id", id),
		slog.String("target_folder_id", targetFolderID),
	)

	req := moveRequest{}
	if targetFolderID != "" {
		req.TargetFolderID = &targetFolderID
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("api: marshaling move request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/documents/"+url.PathEscape(id)+"/move", bodyBytes)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.decodeDocument(resp.Body, "move")
}

// DownloadURL returns a short-lived presigned URL for a file's content.
// The response body is the bare URL, not JSON. Folders cannot be downloaded;
// the server answers with ErrValidation.
func (c *Client) DownloadURL(ctx context.Context, id string) (string, error) {
	c.logger.Debug("fetching download URL", slog.String("document_id", id))

	resp, err := c.Do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id)+"/download", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("api: reading download URL response: %w", err)
	}

	// The URL embeds a signature; never log it.
	return strings.TrimSpace(string(raw)), nil
}
