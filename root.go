package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/docvault/docvault-go/internal/api"
	"github.com/docvault/docvault-go/internal/config"
	"github.com/docvault/docvault-go/internal/hierarchy"
	"github.com/docvault/docvault-go/internal/navguard"
	"github.com/docvault/docvault-go/internal/session"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagServer     string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
// It is available to all subcommands after the root pre-run phase completes.
var resolvedCfg *config.Resolved

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docvault",
		Short:   "DocVault CLI client",
		Long:    "A command-line client for the DocVault document management service.",
		Version: version,
		// Errors and usage are printed by exitOnError, not by cobra.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagServer, "server", "", "API root URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newPermsCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newEditorConfigCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// and stores the result in resolvedCfg for use by subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		ServerURL:  flagServer,
	}

	env := config.ReadEnvOverrides()

	resolved, err := config.Resolve(env, cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newSession assembles the session store and gateway and wires the
// forced-logout hook. This is the composition root: the gateway reads the
// credential from the store, and a rejected credential clears the store
// before the failing call returns.
func newSession() (*session.Store, *api.Client, *slog.Logger, error) {
	logger := buildLogger()

	store, err := session.NewStore(resolvedCfg.CredentialPath, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	httpClient := &http.Client{Timeout: resolvedCfg.Timeout}
	client := api.NewClient(resolvedCfg.ServerURL, httpClient, store, logger)
	client.OnUnauthorized(store.ForceLogout)
	store.Bind(client)

	return store, client, logger, nil
}

// newHierarchy builds the document hierarchy store on top of a fresh
// session and gateway. Commands that need the listing/mutation view use
// this; pure request/response commands use the client directly.
func newHierarchy() (*hierarchy.Store, *session.Store, *slog.Logger, error) {
	store, client, logger, err := newSession()
	if err != nil {
		return nil, nil, nil, err
	}

	if err := requireRoute(store, logger, navguard.RouteDocuments); err != nil {
		return nil, nil, nil, err
	}

	return hierarchy.NewStore(client, logger), store, logger, nil
}

// requireRoute evaluates the named view against the navigation guard for
// the current session. Commands gate on the same route table the views use,
// so the auth rules live in one place.
func requireRoute(store *session.Store, logger *slog.Logger, routeName string) error {
	route, ok := navguard.Lookup(routeName)
	if !ok {
		return fmt.Errorf("unknown route %q", routeName)
	}

	decision := navguard.New(store, logger).Decide(route, route.Path)
	if decision.Action == navguard.RedirectLogin {
		return errNotLoggedIn()
	}

	return nil
}

// errNotLoggedIn is the user-facing "run login first" error.
func errNotLoggedIn() error {
	return fmt.Errorf("not logged in, run 'docvault login' first")
}

// requireUUID validates that a user-supplied ID argument is a UUID before
// spending a round trip on a request the server will reject.
func requireUUID(value, what string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%s %q is not a valid ID: %w", what, value, err)
	}

	return nil
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
