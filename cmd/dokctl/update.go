// update.go implements 'dokctl update': pull current images and roll the
// running stack onto them without touching the manifests.
package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
)

func newUpdateCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Pull newer images and redeploy the running stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runUpdate(cmd, opts)
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func runUpdate(cmd *cobra.Command, opts *config.Options) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	mode, err := opts.ResolveMode()
	if err != nil {
		return err
	}

	started := time.Now()
	switch mode {
	case envfile.ModeSwarm:
		// Stack deploy resolves images itself and rolls services whose image
		// digest changed; re-deploying the transpiled manifest is the update.
		err = deployStack(ctx, opts, mode, log)
	default:
		eng := composeEngine(opts, log)
		if err = eng.Pull(ctx); err == nil {
			err = eng.Up(ctx)
		}
	}
	recordHistory(opts.Dir, "update", mode, started, err, log)
	return err
}
