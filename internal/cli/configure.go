package cli

import (
	"fmt"

	"github.com/harun/smolcc/internal/config"
	"github.com/harun/smolcc/internal/observability"
	"github.com/spf13/cobra"
)

func newConfigureCmd(opts *rootOptions) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Run interactive configuration wizard",
		Long: `Run an interactive configuration wizard to set up smolcc.
The wizard asks for the model provider, model name, step budget and log level.
API keys are never stored; export ANTHROPIC_API_KEY or OPENAI_API_KEY instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, opts, defaults)
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "write the default configuration without prompting")

	return cmd
}

func runConfigure(cmd *cobra.Command, opts *rootOptions, defaults bool) error {
	loader := config.NewLoader(opts.cfgFile)
	out := cmd.OutOrStdout()

	var cfg *config.Config
	if defaults {
		cfg = config.DefaultConfig()
	} else {
		base, err := loader.Load()
		if err != nil {
			base = config.DefaultConfig()
		}

		cfg, err = config.NewWizard(cmd.InOrStdin(), out).Run(base)
		if err != nil {
			return fmt.Errorf("configuration failed: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	configPath := loader.GetConfigPath()
	observability.RecordConfigAudit(cmd.Context(), "config:save", "cli", map[string]interface{}{
		"path":     configPath,
		"provider": cfg.Model.Provider,
		"model":    cfg.ModelName(),
	})

	fmt.Fprintf(out, "\nConfiguration saved to: %s\n", configPath)
	fmt.Fprintln(out, "\nYou can now start smolcc with: smolcc -i")

	return nil
}
