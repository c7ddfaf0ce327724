package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault-go/internal/navguard"
)

func newEditorConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "editor-config <document-id>",
		Short: "Fetch the signed OnlyOffice editor configuration for a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runEditorConfig,
	}
}

// runEditorConfig prints the editor configuration as JSON regardless of the
// --json flag. The blob is only useful to an OnlyOffice embedder, so there
// is no tabular rendering.
func runEditorConfig(_ *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteEditor); err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	cfg, err := client.EditorConfig(context.Background(), args[0])
	if err != nil {
		return err
	}

	out := map[string]any{
		"config":            cfg.Config,
		"token":             cfg.Token,
		"onlyoffice_server": cfg.Server,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding editor config: %w", err)
	}

	return nil
}
