// migrate.go implements 'dokctl migrate': recover configuration from a
// legacy swarm-only deployment, rewrite the manifests for the compose
// backend, and cut over.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
	"github.com/amirhmoradi/dokploy-enhanced/internal/migrate"
	"github.com/amirhmoradi/dokploy-enhanced/internal/swarm"
)

func newMigrateCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move a legacy swarm deployment onto the compose backend",
		Long: `migrate inspects the running legacy swarm services, recovers the advertise
address, database credential, and published port from their specs, rewrites
the manifests for compose mode, removes the legacy stack, and brings the
stack back up with docker compose. Named volumes survive the cut-over.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runMigrate(cmd, opts)
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func runMigrate(cmd *cobra.Command, opts *config.Options) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}

	backend, docker, err := swarmBackend(opts, log)
	if err != nil {
		return err
	}
	defer docker.Close()

	rec, err := migrate.NewExtractor(docker, log).Extract(ctx)
	if err != nil {
		return err
	}
	for _, warning := range rec.Warnings {
		color.Yellow("warning: %s", warning)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recovered: addr=%s port=%d\n", rec.AdvertiseAddr, rec.Port)

	prompt := "Remove the legacy swarm stack and redeploy with compose? Type 'yes' to continue:"
	if err := confirmAction(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), opts.Yes, prompt); err != nil {
		return err
	}

	started := time.Now()
	err = performMigration(cmd, opts, rec, backend)
	recordHistory(opts.Dir, "migrate", envfile.ModeCompose, started, err, log)
	if err != nil {
		return err
	}
	color.Green("Migration complete; the stack now runs under docker compose.")
	return nil
}

func performMigration(cmd *cobra.Command, opts *config.Options, rec migrate.Recovered, backend *swarm.Backend) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}

	addr := opts.AdvertiseAddr
	if addr == "" {
		addr = rec.AdvertiseAddr
	}
	port := opts.Port
	if port == 0 {
		port = rec.Port
	}

	// Existing files are preserved as timestamped backups; the legacy
	// deployment rarely has a manifest pair, but a half-finished migration
	// might.
	_, err = manifest.Generate(manifest.Options{
		Dir:           opts.Dir,
		AdvertiseAddr: addr,
		Port:          port,
		DBPassword:    rec.DBPassword,
		Registry:      opts.Registry,
		Image:         opts.Image,
		Version:       opts.Version,
		Mode:          envfile.ModeCompose,
		EnableTraefik: opts.Traefik,
		Log:           log,
	}, func(string) manifest.Decision { return manifest.DecisionBackup })
	if err != nil {
		return err
	}

	backend.Remove(ctx)

	return deployStack(ctx, opts, envfile.ModeCompose, log)
}
