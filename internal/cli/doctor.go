package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vikflow/vikflow/internal/config"
	"github.com/vikflow/vikflow/internal/secrets"
)

// CheckResult represents the result of a diagnostic check.
type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// newDoctorCmd creates the doctor command.
func (cli *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose secret store and profile configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}
			return cli.runDoctor(format)
		},
	}
}

// runDoctor executes the diagnostic checks.
func (cli *CLI) runDoctor(format OutputFormat) error {
	output := NewOutputWriter(format)
	paths := config.GetPaths()

	var checks []CheckResult

	// Secret store availability
	if err := cli.Secrets.IsAvailable(); err != nil {
		checks = append(checks, CheckResult{
			Name:    "secret store",
			Status:  "ERROR",
			Message: err.Error(),
			Fix:     "install and start a secret service provider, or tokens will only live in memory",
		})
	} else {
		checks = append(checks, CheckResult{
			Name:    "secret store",
			Status:  "OK",
			Message: fmt.Sprintf("backend %q is available", cli.Secrets.Backend()),
		})
	}
	if cli.Secrets.Backend() == secrets.BackendMemory {
		checks = append(checks, CheckResult{
			Name:    "secret backend",
			Status:  "WARN",
			Message: "using the in-memory fallback; tokens are lost when the process exits",
		})
	}

	// Profile metadata file
	if _, err := os.Stat(paths.ProfilesFile); err != nil {
		if os.IsNotExist(err) {
			checks = append(checks, CheckResult{
				Name:    "profiles file",
				Status:  "WARN",
				Message: fmt.Sprintf("%s does not exist yet", paths.ProfilesFile),
				Fix:     "log in from the launcher to create it",
			})
		} else {
			checks = append(checks, CheckResult{
				Name:    "profiles file",
				Status:  "ERROR",
				Message: err.Error(),
			})
		}
	} else {
		checks = append(checks, CheckResult{
			Name:    "profiles file",
			Status:  "OK",
			Message: paths.ProfilesFile,
		})
	}

	// Configured profiles
	profiles := cli.Profiles.List()
	if len(profiles) == 0 {
		checks = append(checks, CheckResult{
			Name:    "profiles",
			Status:  "WARN",
			Message: "no profiles configured",
		})
	} else {
		missing := 0
		for _, prof := range profiles {
			if _, err := cli.Secrets.Get(prof.Name); err != nil {
				missing++
			}
		}
		msg := fmt.Sprintf("%d profile(s) configured", len(profiles))
		status := "OK"
		fix := ""
		if missing > 0 {
			status = "WARN"
			msg = fmt.Sprintf("%s, %d without a stored token", msg, missing)
			fix = "log in again for profiles without a token"
		}
		checks = append(checks, CheckResult{Name: "profiles", Status: status, Message: msg, Fix: fix})
	}

	if cli.Profiles.ActiveName() == "" && len(profiles) > 0 {
		checks = append(checks, CheckResult{
			Name:    "active profile",
			Status:  "WARN",
			Message: "no active profile selected",
			Fix:     "run: vikflow profile use <name>",
		})
	}

	return output.Write(checks, func() {
		for _, check := range checks {
			fmt.Printf("[%s] %s: %s\n", check.Status, check.Name, check.Message)
			if check.Fix != "" {
				fmt.Printf("       fix: %s\n", check.Fix)
			}
		}
	})
}
