// lifecycle.go implements start, stop, and restart. On compose these map to
// the engine's own verbs. Swarm has no stop: start deploys the stack, stop
// removes it (volumes survive), restart does both.
package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
)

func newLifecycleCommands() (start, stop, restart *cobra.Command) {
	start = newLifecycleCommand("start", "Start the deployed stack", runStart)
	stop = newLifecycleCommand("stop", "Stop the deployed stack, keeping data volumes", runStop)
	restart = newLifecycleCommand("restart", "Restart every service of the deployed stack", runRestart)
	return start, stop, restart
}

func newLifecycleCommand(use, short string, run func(*cobra.Command, *config.Options, envfile.Mode) error) *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			log, err := buildLogger(opts)
			if err != nil {
				return err
			}
			mode, err := opts.ResolveMode()
			if err != nil {
				return err
			}
			started := time.Now()
			err = run(cmd, opts, mode)
			recordHistory(opts.Dir, use, mode, started, err, log)
			return err
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func runStart(cmd *cobra.Command, opts *config.Options, mode envfile.Mode) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	if mode == envfile.ModeSwarm {
		return deployStack(ctx, opts, mode, log)
	}
	return composeEngine(opts, log).Up(ctx)
}

func runStop(cmd *cobra.Command, opts *config.Options, mode envfile.Mode) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	if mode == envfile.ModeSwarm {
		backend, docker, err := swarmBackend(opts, log)
		if err != nil {
			return err
		}
		defer docker.Close()
		backend.Remove(ctx)
		return nil
	}
	return composeEngine(opts, log).Stop(ctx)
}

func runRestart(cmd *cobra.Command, opts *config.Options, mode envfile.Mode) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	if mode == envfile.ModeSwarm {
		backend, docker, err := swarmBackend(opts, log)
		if err != nil {
			return err
		}
		defer docker.Close()
		backend.Remove(ctx)
		return deployStack(ctx, opts, mode, log)
	}
	return composeEngine(opts, log).Restart(ctx)
}
