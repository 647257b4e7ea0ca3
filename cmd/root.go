package cmd

import (
	"fmt"
	"os"

	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/logger"
	"github.com/spf13/cobra"
)

var version = "v0.1.0"

// globalOptions holds the persistent logging flags.
type globalOptions struct {
	debug    bool
	verbose  bool
	jsonLogs bool
	quiet    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "shellchain",
		Short: "Run shell commands one after another, threading each result into the next",
		Long: `shellchain runs an ordered chain of commands defined in a YAML file.

Each step sees the previous step's output through placeholders, and decides
whether the chain goes on when its command succeeds or writes to stderr.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupWithWriters(opts.verbose || opts.debug, opts.jsonLogs, opts.quiet,
				cmd.OutOrStdout(), cmd.ErrOrStderr())
			logger.Op.Debug("Debug logging enabled")
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json", false, "Output logs in JSON format")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))

	return cmd
}

// Execute runs the CLI and prints any error it returns.
func Execute() error {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, chainerrors.FormatForCLI(err))
	}
	return err
}
