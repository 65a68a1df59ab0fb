package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// ErrInterrupted is returned when the user interrupts a run with Ctrl-C
var ErrInterrupted = errors.New("interrupted")

// rootOptions holds the flags shared by every subcommand
type rootOptions struct {
	cfgFile     string
	logLevel    string
	logFile     string
	noLog       bool
	cwd         string
	model       string
	provider    string
	metricsAddr string
	interactive bool
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "smolcc [query...]",
		Short: "smolcc - a terminal coding assistant",
		Long: `smolcc lets a language model work on the code in your working directory.
It can read, search and edit files and run shell commands. Anything that
changes files or runs a command asks for your confirmation first.

Pass a query to run it once, or use -i (or no query) for an interactive session.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, strings.TrimSpace(strings.Join(args, " ")))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.smolcc/config.json)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "log file (default is $HOME/.smolcc/smolcc.log)")
	flags.BoolVar(&opts.noLog, "no-log", false, "disable logging")

	cmd.Flags().StringVar(&opts.cwd, "cwd", "", "working directory (default is the current directory)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "model provider (anthropic, openai)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "start an interactive session")

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(newConfigureCmd(opts))
	cmd.AddCommand(newToolsCmd(opts))

	return cmd
}

// Execute runs the CLI with the process arguments
func Execute() error {
	return newRootCmd().Execute()
}

// ExitCode maps the error returned by Execute to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// GetRootCmd returns a fresh root command for testing
func GetRootCmd() *cobra.Command {
	return newRootCmd()
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

func runRoot(cmd *cobra.Command, opts *rootOptions, query string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts, streams{
		in:  cmd.InOrStdin(),
		out: cmd.OutOrStdout(),
		err: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer a.close()

	if opts.interactive || query == "" {
		return a.runInteractive(ctx, query)
	}
	return a.runOnce(ctx, query)
}
