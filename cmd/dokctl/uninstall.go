// uninstall.go implements 'dokctl uninstall'.
package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
)

func newUninstallCommand() *cobra.Command {
	opts := config.NewOptions()
	var volumes bool
	var purge bool
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Tear down the deployed stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runUninstall(cmd, opts, volumes, purge)
		},
	}
	opts.AddFlags(cmd)
	cmd.Flags().BoolVar(&volumes, "volumes", false, "Also delete named data volumes (compose mode only; irreversible)")
	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete the generated manifest and environment files")
	return cmd
}

func runUninstall(cmd *cobra.Command, opts *config.Options, volumes, purge bool) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	mode, err := opts.ResolveMode()
	if err != nil {
		return err
	}

	prompt := "Remove the deployed stack? Type 'yes' to continue:"
	if volumes {
		prompt = "Remove the deployed stack AND its data volumes? Type 'yes' to continue:"
	}
	if err := confirmAction(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), opts.Yes, prompt); err != nil {
		return err
	}

	started := time.Now()
	switch mode {
	case envfile.ModeSwarm:
		backend, docker, berr := swarmBackend(opts, log)
		if berr != nil {
			err = berr
			break
		}
		backend.Remove(ctx)
		docker.Close()
		if volumes {
			log.Warnw("swarm volumes are node-local; delete them per node with 'docker volume rm'")
		}
	default:
		eng := composeEngine(opts, log)
		if volumes {
			err = eng.DownVolumes(ctx)
		} else {
			err = eng.Down(ctx)
		}
	}
	recordHistory(opts.Dir, "uninstall", mode, started, err, log)
	if err != nil {
		return err
	}

	if purge {
		for _, path := range []string{manifest.ComposePath(opts.Dir), envfile.Path(opts.Dir)} {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warnw("could not remove generated file", "path", path, "err", rmErr)
			}
		}
	}
	color.Green("Stack removed.")
	return nil
}
