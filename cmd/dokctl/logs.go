// logs.go implements 'dokctl logs [SERVICE...]'.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
)

func newLogsCommand() *cobra.Command {
	opts := config.NewOptions()
	var follow bool
	var tail int
	cmd := &cobra.Command{
		Use:   "logs [SERVICE...]",
		Short: "Stream service logs from the deployed stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runLogs(cmd, opts, follow, tail, args)
		},
	}
	opts.AddFlags(cmd)
	// -f is taken by --force; follow stays long-form only, and tail takes
	// -n to match the engine CLIs.
	cmd.Flags().BoolVar(&follow, "follow", false, "Follow log output")
	cmd.Flags().IntVarP(&tail, "tail", "n", 100, "Number of historic log lines to show, -1 for all available")
	return cmd
}

func runLogs(cmd *cobra.Command, opts *config.Options, follow bool, tail int, services []string) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	mode, err := opts.ResolveMode()
	if err != nil {
		return err
	}

	if mode != envfile.ModeSwarm {
		return composeEngine(opts, log).Logs(ctx, follow, tail, services...)
	}

	backend, docker, err := swarmBackend(opts, log)
	if err != nil {
		return err
	}
	defer docker.Close()
	// `docker service logs` takes one service at a time.
	if len(services) == 0 {
		services = []string{"dokploy"}
	}
	if len(services) > 1 {
		return fmt.Errorf("swarm mode streams one service at a time; got %d", len(services))
	}
	return backend.ServiceLogs(ctx, services[0], follow, tail)
}
