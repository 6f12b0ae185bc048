// configcmd.go implements 'dokctl config': inspect the manifests the other
// commands would deploy, including the swarm transpilation and its diff.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
	"github.com/amirhmoradi/dokploy-enhanced/internal/transpile"
)

func newConfigCommand() *cobra.Command {
	opts := config.NewOptions()
	var showTranspiled bool
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the rendered deployment manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runConfig(cmd, opts, showTranspiled, showDiff)
		},
	}
	opts.AddFlags(cmd)
	cmd.Flags().BoolVar(&showTranspiled, "transpile", false, "Print the swarm form of the manifest instead of the rendered compose form")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print a unified diff between the rendered and swarm forms")
	return cmd
}

func runConfig(cmd *cobra.Command, opts *config.Options, showTranspiled, showDiff bool) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}

	canonical, err := os.ReadFile(manifest.ComposePath(opts.Dir))
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	eng := composeEngine(opts, log)

	rendered, renderErr := eng.Render(ctx)
	if renderErr != nil || len(rendered) == 0 {
		log.Warnw("manifest render unavailable; showing the canonical manifest", "err", renderErr)
		rendered = canonical
	}

	switch {
	case showDiff:
		diff, err := transpile.Preview(rendered, transpile.Transform(rendered))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
	case showTranspiled:
		cmd.OutOrStdout().Write(transpile.Transform(rendered))
	default:
		cmd.OutOrStdout().Write(rendered)
	}
	return nil
}
