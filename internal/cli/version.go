package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisrules/aegis/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the aegisctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aegisctl %s\n", version.Full())
		},
	}
}
