package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harun/smolcc/internal/config"
	"github.com/harun/smolcc/pkg/coretools"
	"github.com/harun/smolcc/pkg/toolexecutor"
	"github.com/spf13/cobra"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	var cwd string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the model",
		Long: `List the tools the model may call, after the allow and deny lists in the
configuration are applied, and whether each one asks for confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if cwd == "" {
				if cwd, err = os.Getwd(); err != nil {
					return err
				}
			}

			registry := toolexecutor.NewRegistry()
			if err := coretools.Register(registry, coretools.Options{
				WorkingDir: cwd,
				Enabled:    cfg.Tools.ToolEnabled,
			}); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tCONFIRM\tDESCRIPTION")
			for _, spec := range registry.List() {
				confirm := "no"
				if spec.Destructive {
					confirm = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Name, spec.Category, confirm, summary(spec.Description))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory (default is the current directory)")

	return cmd
}

// summary returns the first sentence of a tool description
func summary(description string) string {
	for i, r := range description {
		if r == '.' || r == '\n' {
			return description[:i]
		}
	}
	return description
}
