package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault-go/internal/api"
	"github.com/docvault/docvault-go/internal/hierarchy"
)

// maxConcurrentUploads bounds parallel uploads in `put`.
const maxConcurrentUploads = 4

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List documents in a folder (root if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().Int("limit", 0, "maximum number of entries")
	cmd.Flags().Int("offset", 0, "number of entries to skip")

	return cmd
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <document-id>",
		Short: "Show details for a single document",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}

	cmd.Flags().String("parent", "", "parent folder ID (root if omitted)")
	cmd.Flags().String("description", "", "folder description")

	return cmd
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <file>...",
		Short: "Upload one or more local files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPut,
	}

	cmd.Flags().String("parent", "", "destination folder ID (root if omitted)")
	cmd.Flags().String("description", "", "document description")
	cmd.Flags().StringSlice("tag", nil, "tag to attach (repeatable)")

	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <document-id>",
		Short: "Download a document's content",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}

	cmd.Flags().StringP("output", "o", "", "output path ('-' for stdout, defaults to the document name)")

	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document-id>",
		Short: "Delete a document or folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <document-id> <target-folder-id>",
		Short: "Move a document to another folder ('root' moves it to the top level)",
		Args:  cobra.ExactArgs(2),
		RunE:  runMv,
	}
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <document-id>",
		Short: "Update a document's name, description, or tags",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpdate,
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().StringSlice("tag", nil, "replacement tag set (repeatable)")

	return cmd
}

func runLs(cmd *cobra.Command, args []string) error {
	store, _, _, err := newHierarchy()
	if err != nil {
		return err
	}

	folderID := ""
	if len(args) == 1 {
		folderID = args[0]

		if err := requireUUID(folderID, "folder"); err != nil {
			return err
		}
	}

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	items, err := store.List(context.Background(), folderID, api.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}

	return printDocuments(items)
}

func printDocuments(items []api.Document) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(items)
	}

	rows := make([][]string, 0, len(items))

	for _, d := range items {
		kind := "file"
		size := formatSize(d.FileSize)

		if d.IsFolder {
			kind = "folder"
			size = "-"
		}

		rows = append(rows, []string{d.ID, kind, size, formatTime(d.UpdatedAt), d.Name})
	}

	printTable(os.Stdout, []string{"ID", "TYPE", "SIZE", "MODIFIED", "NAME"}, rows)

	return nil
}

func runStat(_ *cobra.Command, args []string) error {
	store, _, _, err := newHierarchy()
	if err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	doc, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(doc)
	}

	printDocumentDetail(doc)

	return nil
}

func printDocumentDetail(d *api.Document) {
	kind := "file"
	if d.IsFolder {
		kind = "folder"
	}

	fmt.Printf("Name:        %s\n", d.Name)
	fmt.Printf("ID:          %s\n", d.ID)
	fmt.Printf("Type:        %s\n", kind)

	if !d.IsFolder {
		fmt.Printf("Size:        %s\n", formatSize(d.FileSize))
		fmt.Printf("MIME type:   %s\n", d.MimeType)
		fmt.Printf("Version:     %d\n", d.Version)
	}

	if d.Description != "" {
		fmt.Printf("Description: %s\n", d.Description)
	}

	if len(d.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(d.Tags, ", "))
	}

	parent := d.ParentFolderID
	if parent == "" {
		parent = "(root)"
	}

	fmt.Printf("Parent:      %s\n", parent)
	fmt.Printf("Owner:       %s\n", d.OwnerID)
	fmt.Printf("Created:     %s\n", formatTime(d.CreatedAt))
	fmt.Printf("Modified:    %s\n", formatTime(d.UpdatedAt))

	if !d.DeletedAt.IsZero() {
		fmt.Printf("Deleted:     %s\n", formatTime(d.DeletedAt))
	}
}

func runMkdir(cmd *cobra.Command, args []string) error {
	store, _, _, err := newHierarchy()
	if err != nil {
		return err
	}

	parent, _ := cmd.Flags().GetString("parent")
	description, _ := cmd.Flags().GetString("description")

	if parent != "" {
		if err := requireUUID(parent, "parent folder"); err != nil {
			return err
		}
	}

	doc, err := store.CreateFolder(context.Background(), args[0], description, parent)
	if err != nil {
		return err
	}

	statusf("Created folder %s (%s).\n", doc.Name, doc.ID)

	return printDocuments(store.Items())
}

// runPut uploads each named file. Uploads run concurrently but bounded, and
// a single failure cancels the remaining ones.
func runPut(cmd *cobra.Command, args []string) error {
	store, _, logger, err := newHierarchy()
	if err != nil {
		return err
	}

	parent, _ := cmd.Flags().GetString("parent")
	description, _ := cmd.Flags().GetString("description")
	tags, _ := cmd.Flags().GetStringSlice("tag")

	if parent != "" {
		if err := requireUUID(parent, "destination folder"); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(maxConcurrentUploads)

	for _, path := range args {
		path := path
		g.Go(func() error {
			doc, err := uploadOne(ctx, store, path, parent, description, tags)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", path, err)
			}

			logger.Debug("upload complete", "path", path, "id", doc.ID)
			statusf("Uploaded %s (%s, %s).\n", doc.Name, doc.ID, formatSize(doc.FileSize))

			return nil
		})
	}

	return g.Wait()
}

func uploadOne(
	ctx context.Context,
	store *hierarchy.Store,
	path, parent, description string,
	tags []string,
) (*api.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))

	return store.UploadFile(ctx, api.UploadRequest{
		Name:           filepath.Base(path),
		Content:        f,
		ContentType:    contentType,
		ParentFolderID: parent,
		Description:    description,
		Tags:           tags,
	})
}

// runGet resolves the document's download URL and streams the content to a
// local file or stdout. The URL itself is short-lived and never printed.
func runGet(cmd *cobra.Command, args []string) error {
	store, _, _, err := newHierarchy()
	if err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	ctx := context.Background()

	doc, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	if doc.IsFolder {
		return fmt.Errorf("%s is a folder, not a downloadable file", doc.Name)
	}

	url, err := store.Download(ctx, args[0])
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = doc.Name
	}

	var dst io.Writer

	if output == "-" {
		dst = os.Stdout
	} else {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()

		dst = f
	}

	written, err := streamURL(ctx, url, dst)
	if err != nil {
		return err
	}

	if output != "-" {
		statusf("Downloaded %s (%s).\n", output, formatSize(written))
	}

	return nil
}

// streamURL fetches a presigned URL with a plain HTTP GET. The URL embeds
// its own authorization, so no credential header is attached.
func streamURL(ctx context.Context, url string, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return io.Copy(dst, resp.Body)
}

func runRm(_ *cobra.Command, args []string) error {
	store, _, _, err := newHierarchy()
	if err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	if err := store.Delete(context.Background(), args[0]); err != nil {
		return err
	}

	statusf("Deleted %s.\n", args[0])

	return nil
}

func runMv(_ *cobra.Command, args []string) error {
	store, _, _, err := newHierarchy()
	if err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	target := args[1]
	if target == "root" {
		target = ""
	} else if err := requireUUID(target, "target folder"); err != nil {
		return err
	}

	doc, err := store.Move(context.Background(), args[0], target)
	if err != nil {
		return err
	}

	dest := doc.ParentFolderID
	if dest == "" {
		dest = "root"
	}

	statusf("Moved %s to %s.\n", doc.Name, dest)

	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	store, _, _, err := newHierarchy()
	if err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	var req api.UpdateRequest

	if cmd.Flags().Changed("name") {
		name, _ := cmd.Flags().GetString("name")
		req.Name = &name
	}

	if cmd.Flags().Changed("description") {
		description, _ := cmd.Flags().GetString("description")
		req.Description = &description
	}

	if cmd.Flags().Changed("tag") {
		tags, _ := cmd.Flags().GetStringSlice("tag")
		req.Tags = tags
	}

	if req.Name == nil && req.Description == nil && req.Tags == nil {
		return fmt.Errorf("nothing to update, pass --name, --description, or --tag")
	}

	doc, err := store.Update(context.Background(), args[0], req)
	if err != nil {
		return err
	}

	statusf("Updated %s.\n", doc.Name)
	printDocumentDetail(doc)

	return nil
}
