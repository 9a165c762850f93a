package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vikflow/vikflow/internal/profile"
	"github.com/vikflow/vikflow/internal/secrets"
)

// ProfileListOutput represents profile list output for JSON.
type ProfileListOutput struct {
	Active   string            `json:"active"`
	Profiles []profile.Profile `json:"profiles"`
}

// newProfileCmd creates the profile command group.
func (cli *CLI) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage Vikunja connection profiles",
		Long: `Manage connection profiles for different Vikunja instances.

Profiles are normally created from the launcher with the login command;
this group covers the remaining maintenance from a terminal.

Examples:
  # List all profiles
  vikflow profile list

  # Switch the active profile
  vikflow profile use work

  # Remove a profile and its stored token
  vikflow profile remove old-profile`,
	}

	cmd.AddCommand(
		cli.newProfileListCmd(),
		cli.newProfileUseCmd(),
		cli.newProfileRemoveCmd(),
	)

	return cmd
}

// newProfileListCmd creates the profile list command.
func (cli *CLI) newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all configured profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			return cli.runProfileList(format)
		},
	}
}

// runProfileList displays all configured profiles.
func (cli *CLI) runProfileList(format OutputFormat) error {
	output := NewOutputWriter(format)

	profiles := cli.Profiles.List()
	listOutput := ProfileListOutput{
		Active:   cli.Profiles.ActiveName(),
		Profiles: profiles,
	}

	if len(profiles) == 0 {
		return output.Write(listOutput, func() {
			fmt.Println("No profiles configured.")
			fmt.Println()
			fmt.Println("Add one from the launcher: vik login <profile> --url <url> --token <token>")
		})
	}

	return output.Write(listOutput, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL\tVERIFY TLS\tLOGGED IN")

		for _, prof := range profiles {
			current := ""
			if prof.Name == cli.Profiles.ActiveName() {
				current = "* "
			}

			loggedIn := "no"
			if _, err := cli.Secrets.Get(prof.Name); err == nil {
				loggedIn = "yes"
			}

			fmt.Fprintf(w, "%s%s\t%s\t%t\t%s\n",
				current, prof.Name, prof.BaseURL, prof.VerifyTLS(), loggedIn)
		}

		w.Flush()
	})
}

// newProfileUseCmd creates the profile use command.
func (cli *CLI) newProfileUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.Profiles.SetActive(args[0]); err != nil {
				return err
			}
			fmt.Printf("Active profile: %s\n", args[0])
			return nil
		},
	}
}

// newProfileRemoveCmd creates the profile remove command.
func (cli *CLI) newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove a profile and its stored token",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cli.Profiles.Delete(args[0])
			if errors.Is(err, profile.ErrNotFound) {
				fmt.Printf("Profile %q does not exist.\n", args[0])
				return nil
			}
			if err != nil {
				if errors.Is(err, secrets.ErrAccessDenied) {
					return fmt.Errorf("profile removed but token deletion was denied: %w", err)
				}
				return err
			}
			fmt.Printf("Removed profile %q.\n", args[0])
			return nil
		},
	}
}
