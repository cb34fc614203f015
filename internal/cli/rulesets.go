package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aegisrules/aegis/securityrules"
)

func newRulesetsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rulesets",
		Short: "Inspect and manage stored rulesets",
	}
	cmd.AddCommand(newRulesetsListCommand(opts))
	cmd.AddCommand(newRulesetsGetCommand(opts))
	cmd.AddCommand(newRulesetsCreateCommand(opts))
	cmd.AddCommand(newRulesetsDeleteCommand(opts))
	return cmd
}

func newRulesetsListCommand(opts *Options) *cobra.Command {
	var pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every ruleset in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.Client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			view := rulesetListView{Rulesets: []rulesetView{}}
			token := ""
			for {
				page, err := client.ListRulesetMetadata(ctx, pageSize, token)
				if err != nil {
					return err
				}
				for _, md := range page.Rulesets {
					view.Rulesets = append(view.Rulesets, viewOfMetadata(md))
				}
				if page.NextPageToken == "" {
					break
				}
				token = page.NextPageToken
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rulesets fetched per request (0 uses the server default)")
	return cmd
}

func newRulesetsGetCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch one ruleset, source included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.Client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			ruleset, err := client.GetRuleset(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewOfRuleset(ruleset))
		},
	}
}

func newRulesetsCreateCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <file>...",
		Short: "Upload local source files as a new immutable ruleset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]securityrules.RulesFile, 0, len(args))
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				file, err := securityrules.NewRulesFileFromBytes(filepath.Base(path), raw)
				if err != nil {
					return err
				}
				files = append(files, file)
			}

			client, err := opts.Client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			created, err := client.CreateRuleset(ctx, files...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), viewOfRuleset(created))
		},
	}
}

func newRulesetsDeleteCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Permanently remove a ruleset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.Client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			if err := client.DeleteRuleset(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted ruleset %s\n", args[0])
			return nil
		},
	}
}
