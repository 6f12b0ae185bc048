// status.go implements 'dokctl status'. Compose defers to `compose ps`;
// swarm renders a replica table from the engine API with per-service health
// coloring.
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
)

func newStatusCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the deployed stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runStatus(cmd, opts)
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func runStatus(cmd *cobra.Command, opts *config.Options) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}
	mode, err := opts.ResolveMode()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deploy mode: %s\n", mode)

	if mode != envfile.ModeSwarm {
		return composeEngine(opts, log).Status(ctx)
	}

	backend, docker, err := swarmBackend(opts, log)
	if err != nil {
		return err
	}
	defer docker.Close()

	services := backend.Status(ctx)
	if len(services) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no services deployed")
		return nil
	}
	healthy := color.New(color.FgGreen).SprintfFunc()
	degraded := color.New(color.FgYellow).SprintfFunc()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tIMAGE\tREPLICAS")
	for _, svc := range services {
		replicas := fmt.Sprintf("%d/%d", svc.Running, svc.Desired)
		if svc.Running == svc.Desired && svc.Desired > 0 {
			replicas = healthy("%s", replicas)
		} else {
			replicas = degraded("%s", replicas)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", svc.Name, svc.Image, replicas)
	}
	return w.Flush()
}
