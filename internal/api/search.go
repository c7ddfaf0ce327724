package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// defaultSearchLimit matches the server's default page size.
const defaultSearchLimit = 50

// SearchQuery describes a full-text search with optional facet filters.
// IsFolder is a tri-state: nil means both files and folders.
type SearchQuery struct {
	Q        string
	Limit    int
	Offset   int
	OwnerID  string
	MimeType string
	IsFolder *bool
}

// searchHitResponse mirrors the search index projection JSON exactly.
// Timestamps are Unix seconds, unlike the rest of the API.
type searchHitResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MimeType    string   `json:"mime_type"`
	OwnerID     string   `json:"owner_id"`
	IsFolder    bool     `json:"is_folder"`
	Tags        []string `json:"tags"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

func (s *searchHitResponse) toSearchHit() SearchHit {
	return SearchHit{
		ID:          s.ID,
		Name:        normalizeName(s.Name),
		Description: s.Description,
		MimeType:    s.MimeType,
		OwnerID:     s.OwnerID,
		IsFolder:    s.IsFolder,
		Tags:        s.Tags,
		CreatedAt:   time.Unix(s.CreatedAt, 0).UTC(),
		UpdatedAt:   time.Unix(s.UpdatedAt, 0).UTC(),
	}
}

// Search runs a full-text query against the document index. Hits are
// read-only snapshots; they are never merged back into the hierarchy store.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]SearchHit, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := url.Values{}
	q.Set("q", query.Q)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(query.Offset))

	if query.OwnerID != "" {
		q.Set("owner_id", query.OwnerID)
	}

	if query.MimeType != "" {
		q.Set("mime_type", query.MimeType)
	}

	if query.IsFolder != nil {
		q.Set("is_folder", strconv.FormatBool(*query.IsFolder))
	}

	c.logger.Debug("searching documents",
		slog.String("q", query.Q),
		slog.Int("limit", limit),
		slog.Int("offset", query.Offset),
	)

	resp, err := c.Do(ctx, http.MethodGet, "/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw []searchHitResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("api: decoding search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(raw))
	for i := range raw {
		hits = append(hits, raw[i].toSearchHit())
	}

	c.logger.Debug("search complete", slog.Int("hits", len(hits)))

	return hits, nil
}
