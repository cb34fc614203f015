// Package cli implements the aegisctl command tree. Commands talk to the
// service through the securityrules client; connection settings resolve from
// flags, AEGISCTL_* environment variables, and ~/.aegisctl.yaml, in that
// order.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aegisrules/aegis/securityrules"
)

const defaultServerURL = "http://localhost:8080"

// Options carries the resolved connection settings shared by all commands.
type Options struct {
	ServerURL  string
	Project    string
	Timeout    time.Duration
	ConfigFile string
}

// NewRootCommand builds the aegisctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "aegisctl",
		Short: "Manage Aegis rulesets and releases",
		Long: "aegisctl administers an Aegis rules service: uploading rules source\n" +
			"as immutable rulesets, inspecting stored rulesets, and controlling\n" +
			"which ruleset each engine enforces.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", defaultServerURL, "base URL of the Aegis server")
	cmd.PersistentFlags().StringVar(&opts.Project, "project", "", "project id")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per-command timeout")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ~/.aegisctl.yaml)")

	cmd.AddCommand(newRulesetsCommand(opts))
	cmd.AddCommand(newReleasesCommand(opts))
	cmd.AddCommand(newPingCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// resolve fills settings not given as flags from the environment and the
// config file. Explicit flags always win.
func (o *Options) resolve(cmd *cobra.Command) error {
	v := viper.New()
	v.SetDefault("server", defaultServerURL)
	v.SetDefault("timeout", "30s")
	v.SetEnvPrefix("AEGISCTL")
	v.AutomaticEnv()

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", o.ConfigFile, err)
		}
	} else {
		v.SetConfigName(".aegisctl")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	flags := cmd.Flags()
	if !flags.Changed("server") {
		o.ServerURL = v.GetString("server")
	}
	if !flags.Changed("project") {
		o.Project = v.GetString("project")
	}
	if !flags.Changed("timeout") {
		o.Timeout = v.GetDuration("timeout")
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return nil
}

// Client returns a ruleset client for the resolved server and project.
func (o *Options) Client() (*securityrules.Client, error) {
	if o.Project == "" {
		return nil, errors.New("project id is required: set --project, AEGISCTL_PROJECT, or project in ~/.aegisctl.yaml")
	}
	return securityrules.NewClient(o.ServerURL, o.Project), nil
}

// requestContext bounds one command's API traffic.
func (o *Options) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.Timeout)
}
