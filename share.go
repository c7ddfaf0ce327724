package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault-go/internal/api"
	"github.com/docvault/docvault-go/internal/navguard"
)

func newPermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Manage document permissions",
	}

	cmd.AddCommand(newPermsListCmd())
	cmd.AddCommand(newPermsGrantCmd())
	cmd.AddCommand(newPermsRevokeCmd())

	return cmd
}

func newPermsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <document-id>",
		Short: "List permission grants on a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runPermsList,
	}
}

func newPermsGrantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant <document-id> <user-id> <permission>",
		Short: "Grant a user a permission kind on a document",
		Args:  cobra.ExactArgs(3),
		RunE:  runPermsGrant,
	}

	cmd.Flags().String("expires", "", "expiry timestamp (RFC 3339)")

	return cmd
}

func newPermsRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <document-id> <user-id> <permission>",
		Short: "Revoke one permission kind from a user",
		Args:  cobra.ExactArgs(3),
		RunE:  runPermsRevoke,
	}
}

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Manage share links",
	}

	cmd.AddCommand(newShareCreateCmd())
	cmd.AddCommand(newShareListCmd())
	cmd.AddCommand(newShareResolveCmd())
	cmd.AddCommand(newShareRmCmd())

	return cmd
}

func newShareCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <document-id>",
		Short: "Create a share link for a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareCreate,
	}

	cmd.Flags().String("permission", "read", "permission kind the link carries")
	cmd.Flags().String("password", "", "require this password on access")
	cmd.Flags().Int("max-access", 0, "maximum access count (0 = unlimited)")
	cmd.Flags().String("expires", "", "expiry timestamp (RFC 3339)")

	return cmd
}

func newShareListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <document-id>",
		Short: "List share links on a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareList,
	}
}

func newShareResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <token>",
		Short: "Resolve a share token to its document",
		Long: "Resolve a share token to its link record. Works without a login. " +
			"Each resolve counts against the link's access budget on the server.",
		Args: cobra.ExactArgs(1),
		RunE: runShareResolve,
	}
}

func newShareRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <link-id>",
		Short: "Delete a share link",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareRm,
	}
}

// parseExpiry parses an optional --expires flag value. Empty means no
// expiry and returns the zero time.
func parseExpiry(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --expires value %q, expected RFC 3339: %w", value, err)
	}

	return t, nil
}

func runPermsList(_ *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteDocumentDetail); err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	grants, err := client.ListPermissions(context.Background(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(grants)
	}

	now := time.Now()
	rows := make([][]string, 0, len(grants))

	for _, g := range grants {
		expiry := "-"
		if !g.ExpiresAt.IsZero() {
			expiry = formatTime(g.ExpiresAt)

			if g.Expired(now) {
				expiry += " (expired)"
			}
		}

		rows = append(rows, []string{g.UserID, string(g.Permission), g.GrantedBy, expiry})
	}

	printTable(os.Stdout, []string{"USER", "PERMISSION", "GRANTED BY", "EXPIRES"}, rows)

	return nil
}

func runPermsGrant(cmd *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteDocumentDetail); err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	if err := requireUUID(args[1], "user"); err != nil {
		return err
	}

	kind, ok := api.ParsePermission(args[2])
	if !ok {
		return fmt.Errorf("unknown permission kind %q", args[2])
	}

	expiresFlag, _ := cmd.Flags().GetString("expires")

	expires, err := parseExpiry(expiresFlag)
	if err != nil {
		return err
	}

	grant, err := client.Grant(context.Background(), args[0], args[1], kind, expires)
	if err != nil {
		return err
	}

	statusf("Granted %s to user %s.\n", grant.Permission, grant.UserID)

	return nil
}

func runPermsRevoke(_ *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteDocumentDetail); err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	if err := requireUUID(args[1], "user"); err != nil {
		return err
	}

	kind, ok := api.ParsePermission(args[2])
	if !ok {
		return fmt.Errorf("unknown permission kind %q", args[2])
	}

	if err := client.Revoke(context.Background(), args[0], args[1], kind); err != nil {
		return err
	}

	statusf("Revoked %s from user %s.\n", kind, args[1])

	return nil
}

func runShareCreate(cmd *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteDocumentDetail); err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	permFlag, _ := cmd.Flags().GetString("permission")

	kind, ok := api.ParsePermission(permFlag)
	if !ok {
		return fmt.Errorf("unknown permission kind %q", permFlag)
	}

	password, _ := cmd.Flags().GetString("password")
	maxAccess, _ := cmd.Flags().GetInt("max-access")
	expiresFlag, _ := cmd.Flags().GetString("expires")

	expires, err := parseExpiry(expiresFlag)
	if err != nil {
		return err
	}

	link, err := client.CreateShareLink(context.Background(), args[0], api.ShareLinkRequest{
		Permission:     kind,
		Password:       password,
		MaxAccessCount: maxAccess,
		ExpiresAt:      expires,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(link)
	}

	statusf("Share link created (%s).\n", link.ID)
	fmt.Println(link.Token)

	return nil
}

func runShareList(_ *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteDocumentDetail); err != nil {
		return err
	}

	if err := requireUUID(args[0], "document"); err != nil {
		return err
	}

	links, err := client.ListShareLinks(context.Background(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(links)
	}

	rows := make([][]string, 0, len(links))

	for _, l := range links {
		access := fmt.Sprintf("%d", l.AccessCount)
		if l.MaxAccessCount > 0 {
			access = fmt.Sprintf("%d/%d", l.AccessCount, l.MaxAccessCount)
		}

		password := "no"
		if l.HasPassword {
			password = "yes"
		}

		expiry := "-"
		if !l.ExpiresAt.IsZero() {
			expiry = formatTime(l.ExpiresAt)
		}

		rows = append(rows, []string{l.ID, string(l.Permission), access, password, expiry, l.Token})
	}

	printTable(os.Stdout, []string{"ID", "PERMISSION", "ACCESS", "PASSWORD", "EXPIRES", "TOKEN"}, rows)

	return nil
}

// runShareResolve works logged in or not. Share access is the one route
// that never requires a session.
func runShareResolve(_ *cobra.Command, args []string) error {
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	link, err := client.ResolveShareLink(context.Background(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(link)
	}

	fmt.Printf("Document:   %s\n", link.DocumentID)
	fmt.Printf("Permission: %s\n", link.Permission)
	fmt.Printf("Accesses:   %d\n", link.AccessCount)

	if link.MaxAccessCount > 0 {
		fmt.Printf("Limit:      %d\n", link.MaxAccessCount)
	}

	if !link.ExpiresAt.IsZero() {
		fmt.Printf("Expires:    %s\n", formatTime(link.ExpiresAt))
	}

	return nil
}

func runShareRm(_ *cobra.Command, args []string) error {
	store, client, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteDocumentDetail); err != nil {
		return err
	}

	if err := requireUUID(args[0], "share link"); err != nil {
		return err
	}

	if err := client.DeleteShareLink(context.Background(), args[0]); err != nil {
		return err
	}

	statusf("Share link %s deleted.\n", args[0])

	return nil
}
