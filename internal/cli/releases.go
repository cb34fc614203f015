package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aegisrules/aegis/securityrules"
)

// Engine slot arguments accepted by the releases commands.
const (
	engineDocstore  = "docstore"
	engineBlobstore = "blobstore"
)

func newReleasesCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releases",
		Short: "Control which ruleset each engine enforces",
	}
	cmd.AddCommand(newReleasesGetCommand(opts))
	cmd.AddCommand(newReleasesSetCommand(opts))
	return cmd
}

func newReleasesGetCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <docstore|blobstore>",
		Short: "Show the ruleset an engine currently enforces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.Client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			var ruleset *securityrules.Ruleset
			switch args[0] {
			case engineDocstore:
				ruleset, err = client.GetDocstoreRuleset(ctx)
			case engineBlobstore:
				ruleset, err = client.GetBlobstoreRuleset(ctx)
			default:
				return fmt.Errorf("unknown engine %q: want %s or %s", args[0], engineDocstore, engineBlobstore)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewOfRuleset(ruleset))
		},
	}
}

func newReleasesSetCommand(opts *Options) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "set <docstore|blobstore> [ruleset]",
		Short: "Point an engine's release slot at a ruleset",
		Long: "Point an engine's release slot at a stored ruleset by name, or use\n" +
			"--from-file to upload local source as a new ruleset and release it in\n" +
			"one step.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := args[0]
			if engine != engineDocstore && engine != engineBlobstore {
				return fmt.Errorf("unknown engine %q: want %s or %s", engine, engineDocstore, engineBlobstore)
			}
			if (fromFile == "") == (len(args) == 1) {
				return fmt.Errorf("give either a ruleset name or --from-file, not both")
			}

			client, err := opts.Client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			var released *securityrules.Ruleset
			if fromFile != "" {
				raw, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", fromFile, err)
				}
				if engine == engineDocstore {
					released, err = client.ReleaseDocstoreRulesetFromSource(ctx, string(raw))
				} else {
					released, err = client.ReleaseBlobstoreRulesetFromSource(ctx, string(raw))
				}
				if err != nil {
					return err
				}
			} else {
				if engine == engineDocstore {
					released, err = client.ReleaseDocstoreRuleset(ctx, args[1])
				} else {
					released, err = client.ReleaseBlobstoreRuleset(ctx, args[1])
				}
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), viewOfRuleset(released))
		},
	}

	cmd.Flags().StringVar(&fromFile, "from-file", "", "create the ruleset from this source file, then release it")
	return cmd
}
