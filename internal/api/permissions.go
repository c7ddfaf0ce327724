package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// grantResponse mirrors the API permission grant JSON exactly.
type grantResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
	GrantedBy  string `json:"granted_by"`
	GrantedAt  string `json:"granted_at"`
	ExpiresAt  string `json:"expires_at"`
}

func (g *grantResponse) toGrant(logger *slog.Logger) Grant {
	return Grant{
		ID:         g.ID,
		DocumentID: g.DocumentID,
		UserID:     g.UserID,
		Permission: Permission(g.Permission),
		GrantedBy:  g.GrantedBy,
		GrantedAt:  parseTimestamp(g.GrantedAt, "granted_at", g.ID, logger),
		ExpiresAt:  parseTimestamp(g.ExpiresAt, "expires_at", g.ID, logger),
	}
}

// shareLinkResponse mirrors the API share link JSON exactly. The password
// hash is surfaced only as a presence flag on the normalized type.
type shareLinkResponse struct {
	ID             string `json:"id"`
	DocumentID     string `json:"document_id"`
	Token          string `json:"token"`
	CreatedBy      string `json:"created_by"`
	Permission     string `json:"permission"`
	PasswordHash   string `json:"password_hash"`
	MaxAccessCount int    `json:"max_access_count"`
	AccessCount    int    `json:"access_count"`
	ExpiresAt      string `json:"expires_at"`
	CreatedAt      string `json:"created_at"`
}

func (s *shareLinkResponse) toShareLink(logger *slog.Logger) ShareLink {
	return ShareLink{
		ID:             s.ID,
		DocumentID:     s.DocumentID,
		Token:          s.Token,
		CreatedBy:      s.CreatedBy,
		Permission:     Permission(s.Permission),
		HasPassword:    s.PasswordHash != "",
		MaxAccessCount: s.MaxAccessCount,
		AccessCount:    s.AccessCount,
		ExpiresAt:      parseTimestamp(s.ExpiresAt, "expires_at", s.ID, logger),
		CreatedAt:      parseTimestamp(s.CreatedAt, "created_at", s.ID, logger),
	}
}

type grantRequest struct {
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

// ShareLinkRequest describes a new share link. Zero values mean no password,
// no access-count limit, and no expiry.
type ShareLinkRequest struct {
	Permission     Permission
	Password       string
	MaxAccessCount int
	ExpiresAt      time.Time
}

type shareLinkRequest struct {
	Permission     string `json:"permission"`
	Password       string `json:"password,omitempty"`
	MaxAccessCount int    `json:"max_access_count,omitempty"`
	ExpiresAt      string `json:"expires_at,omitempty"`
}

// ListPermissions returns all grants on a document, including expired ones.
// Expiry is display information only; the server decides what is active.
func (c *Client) ListPermissions(ctx context.Context, documentID string) ([]Grant, error) {
	c.logger.Debug("listing permissions", slog.String("document_id", documentID))

	resp, err := c.Do(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID)+"/permissions", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw []grantResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("api: decoding permissions response: %w", err)
	}

	grants := make([]Grant, 0, len(raw))
	for i := range raw {
		grants = append(grants, raw[i].toGrant(c.logger))
	}

	return grants, nil
}

// Grant gives a user one permission kind on a document. A zero expiresAt
// grants without expiry. Granting the same (user, kind) pair again replaces
// the previous grant on the server.
func (c *Client) Grant(
	ctx context.Context, documentID, userID string, kind Permission, expiresAt time.Time,
) (*Grant, error) {
	c.logger.Info("granting permission",
		slog.String("document_id", documentID),
		slog.String("user_id", userID),
		slog.String("permission", string(kind)),
	)

	bodyBytes, err := json.Marshal(grantRequest{
		UserID:     userID,
		Permission: string(kind),
		ExpiresAt:  formatTimestamp(expiresAt),
	})
	if err != nil {
		return nil, fmt.Errorf("api: marshaling grant request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/documents/"+url.PathEscape(documentID)+"/permissions", bodyBytes)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var gr grantResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("api: decoding grant response: %w", err)
	}

	grant := gr.toGrant(c.logger)

	return &grant, nil
}

// Revoke removes one permission kind from a user on a document. Revoking
// one kind leaves the user's other grants on the document untouched.
func (c *Client) Revoke(ctx context.Context, documentID, userID string, kind Permission) error {
	c.logger.Info("revoking permission",
		slog.String("document_id", documentID),
		slog.String("user_id", userID),
		slog.String("permission", string(kind)),
	)

	path := fmt.Sprintf("/documents/%s/permissions/%s/%s",
		url.PathEscape(documentID), url.PathEscape(userID), url.PathEscape(string(kind)))

	resp, err := c.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
		return fmt.Errorf("api: draining revoke response body: %w", copyErr)
	}

	return nil
}

// CreateShareLink issues a public link for a document. The returned record
// includes the public-facing token.
func (c *Client) CreateShareLink(ctx context.Context, documentID string, req ShareLinkRequest) (*ShareLink, error) {
	c.logger.Info("creating share link",
		slog.String("document_id", documentID),
		slog.String("permission", string(req.Permission)),
		slog.Bool("has_password", req.Password != ""),
		slog.Int("max_access_count", req.MaxAccessCount),
	)

	bodyBytes, err := json.Marshal(shareLinkRequest{
		Permission:     string(req.Permission),
		Password:       req.Password,
		MaxAccessCount: req.MaxAccessCount,
		ExpiresAt:      formatTimestamp(req.ExpiresAt),
	})
	if err != nil {
		return nil, fmt.Errorf("api: marshaling share link request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/documents/"+url.PathEscape(documentID)+"/share", bodyBytes)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr shareLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("api: decoding share link response: %w", err)
	}

	link := sr.toShareLink(c.logger)

	return &link, nil
}

// ListShareLinks returns all share links issued for a document.
func (c *Client) ListShareLinks(ctx context.Context, documentID string) ([]ShareLink, error) {
	c.logger.Debug("listing share links", slog.String("document_id", documentID))

	resp, err := c.Do(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID)+"/shares", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw []shareLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("api: decoding share links response: %w", err)
	}

	links := make([]ShareLink, 0, len(raw))
	for i := range raw {
		links = append(links, raw[i].toShareLink(c.logger))
	}

	return links, nil
}

// ResolveShareLink fetches a share link by its public token. This is the one
// credential-optional read: it works on a client with no session at all. The
// server counts the access and rejects exhausted, expired, or
// password-protected links on its own authority; a rejection here must be
// surfaced, never smoothed over.
func (c *Client) ResolveShareLink(ctx context.Context, token string) (*ShareLink, error) {
	c.logger.Debug("resolving share link")

	resp, err := c.Do(ctx, http.MethodGet, "/share/"+url.PathEscape(token), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr shareLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("api: decoding share link response: %w", err)
	}

	link := sr.toShareLink(c.logger)

	return &link, nil
}

// DeleteShareLink revokes a share link by its record ID (not its token).
func (c *Client) DeleteShareLink(ctx context.Context, linkID string) error {
	c.logger.Info("deleting share link", slog.String("link_id", linkID))

	resp, err := c.Do(ctx, http.MethodDelete, "/share/"+url.PathEscape(linkID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
		return fmt.Errorf("api: draining delete response body: %w", copyErr)
	}

	return nil
}
