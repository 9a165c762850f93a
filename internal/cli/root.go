// Package cli provides the maintenance command-line interface: profile
// management and diagnostics outside the launcher surface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vikflow/vikflow/internal/config"
	"github.com/vikflow/vikflow/internal/profile"
	"github.com/vikflow/vikflow/internal/secrets"
)

// CLI holds the application state for the maintenance commands.
type CLI struct {
	Profiles *profile.Store
	Secrets  secrets.Store
	rootCmd  *cobra.Command

	outputFlag string
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{
		Secrets: secrets.Select(),
	}

	cli.rootCmd = &cobra.Command{
		Use:   "vikflow [command]",
		Short: "Vikflow - Vikunja launcher plugin",
		Long: `Vikflow is a keyboard-launcher plugin for managing tasks on a
self-hosted Vikunja instance.

The launcher invokes the binary directly; this command surface exists for
maintenance from a terminal: inspecting and switching profiles, removing
stale profiles, and diagnosing secret store problems.

Tokens are kept in your system's credential store (Keychain on macOS,
Credential Manager on Windows, Secret Service on Linux) and never in the
profile metadata file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cli.rootCmd.PersistentFlags().StringVarP(&cli.outputFlag, "output", "o", "text", "Output format (text, json)")

	cli.rootCmd.AddCommand(
		cli.newProfileCmd(),
		cli.newDoctorCmd(),
		cli.newVersionCmd(),
	)

	return cli
}

// initialize loads the profile store.
func (cli *CLI) initialize() error {
	paths := config.GetPaths()
	store, err := profile.NewStore(paths.ProfilesFile, cli.Secrets)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	cli.Profiles = store
	return nil
}

// Execute runs the CLI.
func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}
