package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// editorConfigResponse mirrors the OnlyOffice config endpoint JSON.
// The config blob stays opaque; the editor consumes it, not us.
type editorConfigResponse struct {
	Config           map[string]any `json:"config"`
	Token            string         `json:"token"`
	OnlyOfficeServer string         `json:"onlyoffice_server"`
}

// EditorConfig fetches the signed editor configuration for a document. The
// blob and its JWT are handed to the OnlyOffice editor verbatim; the client
// neither inspects nor re-signs them.
func (c *Client) EditorConfig(ctx context.Context, documentID string) (*EditorConfig, error) {
	c.logger.Debug("fetching editor config", slog.String("document_id", documentID))

	resp, err := c.Do(ctx, http.MethodGet, "/onlyoffice/"+url.PathEscape(documentID)+"/config", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var er editorConfigResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("api: decoding editor config response: %w", err)
	}

	return &EditorConfig{
		Config: er.Config,
		Token:  er.Token,
		Server: er.OnlyOfficeServer,
	}, nil
}
