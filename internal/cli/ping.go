package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisrules/aegis/securityrules"
)

func newPingCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No project needed; the health endpoint is not project scoped.
			client := securityrules.NewClient(opts.ServerURL, opts.Project)
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			if err := client.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", opts.ServerURL)
			return nil
		},
	}
}
