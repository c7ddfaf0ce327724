package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status without contacting the server",
		RunE:  runStatus,
	}
}

type statusOutput struct {
	LoggedIn  bool   `json:"logged_in"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	IssuedAt  string `json:"issued_at,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Expired   bool   `json:"expired,omitempty"`
}

// runStatus inspects the stored credential locally. Claims come from the
// unverified token payload, so this is purely informational and says nothing
// about whether the server still accepts the session.
func runStatus(_ *cobra.Command, _ []string) error {
	store, _, _, err := newSession()
	if err != nil {
		return err
	}

	out := statusOutput{LoggedIn: store.IsAuthenticated()}

	if out.LoggedIn {
		claims, err := store.TokenClaims()
		if err == nil {
			out.Username = claims.Username
			out.Role = claims.Role
			out.IssuedAt = formatTime(claims.IssuedAt)
			out.ExpiresAt = formatTime(claims.ExpiresAt)
			out.Expired = claims.Expired(time.Now())
		}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	if !out.LoggedIn {
		fmt.Println("Not logged in.")

		return nil
	}

	fmt.Println("Logged in.")

	if out.Username != "" {
		fmt.Printf("Username: %s\n", out.Username)
		fmt.Printf("Role:     %s\n", out.Role)
		fmt.Printf("Issued:   %s\n", out.IssuedAt)
		fmt.Printf("Expires:  %s", out.ExpiresAt)

		if out.Expired {
			fmt.Print(" (expired)")
		}

		fmt.Println()
	}

	return nil
}
