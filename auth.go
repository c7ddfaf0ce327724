package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docvault/docvault-go/internal/api"
	"github.com/docvault/docvault-go/internal/navguard"
)

// EnvPassword lets scripts supply the login password non-interactively.
const EnvPassword = "DOCVAULT_PASSWORD"

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Authenticate and store the session credential",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session credential",
		RunE:  runLogout,
	}
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(2),
		RunE:  runRegister,
	}

	cmd.Flags().String("full-name", "", "optional display name")

	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated user",
		RunE:  runWhoami,
	}
}

// readPassword takes the password from DOCVAULT_PASSWORD or, failing that,
// reads one line from stdin. Prompting happens on stderr so piped stdout
// stays clean.
func readPassword() (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(_ *cobra.Command, args []string) error {
	store, _, logger, err := newSession()
	if err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	ctx := context.Background()

	user, err := store.Login(ctx, args[0], password)
	if err != nil {
		return err
	}

	logger.Debug("login complete", "user_id", user.ID)
	statusf("Logged in as %s (%s).\n", user.Username, user.Email)

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	store, _, _, err := newSession()
	if err != nil {
		return err
	}

	if err := store.Logout(); err != nil {
		return err
	}

	statusf("Logged out.\n")

	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	store, _, _, err := newSession()
	if err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	fullName, _ := cmd.Flags().GetString("full-name")

	user, err := store.Register(context.Background(), api.RegisterRequest{
		Username: args[0],
		Email:    args[1],
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		return err
	}

	statusf("Account %s created. Log in with 'docvault login %s'.\n", user.Username, user.Username)

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func runWhoami(_ *cobra.Command, _ []string) error {
	store, _, logger, err := newSession()
	if err != nil {
		return err
	}

	if err := requireRoute(store, logger, navguard.RouteProfile); err != nil {
		return err
	}

	user, err := store.Whoami(context.Background())
	if err != nil {
		return fmt.Errorf("fetching identity: %w", err)
	}

	if flagJSON {
		out := whoamiOutput{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FullName:  user.FullName,
			Role:      user.Role,
			IsActive:  user.IsActive,
			CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	fmt.Printf("%s <%s>\n", user.Username, user.Email)

	if user.FullName != "" {
		fmt.Printf("Name:    %s\n", user.FullName)
	}

	fmt.Printf("Role:    %s\n", user.Role)
	fmt.Printf("User ID: %s\n", user.ID)

	return nil
}
