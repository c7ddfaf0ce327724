package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault-go/internal/api"
	"github.com/docvault/docvault-go/internal/navguard"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents by name, description, and tags",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().Int("limit", 0, "maximum number of hits")
	cmd.Flags().Int("offset", 0, "number of hits to skip")
	cmd.Flags().String("owner", "", "filter by owner user ID")
	cmd.Flags().String("mime-type", "", "filter by MIME type")
	cmd.Flags().Bool("folders", false, "only folders")
	cmd.Flags().Bool("files", false, "only files")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteSearch); err != nil {
		return err
	}

	query := api.SearchQuery{Q: args[0]}

	query.Limit, _ = cmd.Flags().GetInt("limit")
	query.Offset, _ = cmd.Flags().GetInt("offset")
	query.OwnerID, _ = cmd.Flags().GetString("owner")
	query.MimeType, _ = cmd.Flags().GetString("mime-type")

	if query.OwnerID != "" {
		if err := requireUUID(query.OwnerID, "owner"); err != nil {
			return err
		}
	}

	foldersOnly, _ := cmd.Flags().GetBool("folders")
	filesOnly, _ := cmd.Flags().GetBool("files")

	switch {
	case foldersOnly && filesOnly:
		// Both filters cancel out.
	case foldersOnly:
		v := true
		query.IsFolder = &v
	case filesOnly:
		v := false
		query.IsFolder = &v
	}

	hits, err := client.Search(context.Background(), query)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(hits)
	}

	rows := make([][]string, 0, len(hits))

	for _, h := range hits {
		kind := "file"
		if h.IsFolder {
			kind = "folder"
		}

		rows = append(rows, []string{
			h.ID, kind, h.Name, strings.Join(h.Tags, ","), formatTime(h.UpdatedAt),
		})
	}

	printTable(os.Stdout, []string{"ID", "TYPE", "NAME", "TAGS", "MODIFIED"}, rows)

	return nil
}
