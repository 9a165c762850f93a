package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vikflow/vikflow/internal/version"
)

// newVersionCmd creates the version command.
func (cli *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(cli.outputFlag)
			if err != nil {
				return err
			}

			info := version.Get()
			return NewOutputWriter(format).Write(info, func() {
				fmt.Println(info.String())
			})
		},
	}
}
