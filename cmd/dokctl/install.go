// install.go implements 'dokctl install': manifest generation followed by the
// first deploy on the selected backend.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
	"github.com/amirhmoradi/dokploy-enhanced/internal/migrate"
	"github.com/amirhmoradi/dokploy-enhanced/internal/swarm"
)

func newInstallCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Generate deployment manifests and bring the stack up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runInstall(cmd, opts)
		},
	}
	opts.AddFlags(cmd)
	return cmd
}

func runInstall(cmd *cobra.Command, opts *config.Options) error {
	ctx := cmd.Context()
	log, err := buildLogger(opts)
	if err != nil {
		return err
	}

	mode, err := opts.ResolveMode()
	if err != nil {
		return err
	}
	addr := opts.AdvertiseAddr
	if addr == "" {
		addr = migrate.ProbePrivateAddr()
		if addr == "" {
			return fmt.Errorf("could not detect a private address; pass --advertise-addr")
		}
		log.Infow("advertise address detected", "addr", addr)
	}

	decide := manifest.DecideFunc(nil)
	if opts.Force {
		decide = func(string) manifest.Decision { return manifest.DecisionOverwrite }
	} else {
		decide = promptDecision(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	started := time.Now()
	res, err := manifest.Generate(manifest.Options{
		Dir:           opts.Dir,
		AdvertiseAddr: addr,
		Port:          opts.Port,
		DBPassword:    opts.DBPassword,
		ForcePassword: opts.ForcePassword,
		Registry:      opts.Registry,
		Image:         opts.Image,
		Version:       opts.Version,
		Mode:          mode,
		EnableTraefik: opts.Traefik,
		Log:           log,
	}, decide)
	if err != nil {
		return err
	}
	if res.Kept {
		log.Infow("existing manifests kept", "dir", opts.Dir)
	}
	if res.GeneratedPassword && opts.ForcePassword {
		color.Yellow("A new database password was generated; the existing database keeps its old password until reset to match.")
	}

	err = deployStack(ctx, opts, mode, log)
	recordHistory(opts.Dir, "install", mode, started, err, log)
	if err != nil {
		return err
	}

	port := res.Env.Lookup(envfile.KeyPort)
	color.Green("dokploy is up in %s mode.", mode)
	fmt.Fprintf(cmd.OutOrStdout(), "Web UI: http://%s:%s\n", addr, port)
	return nil
}

// deployStack brings the stack up on the backend the mode selects. Swarm
// deploys go through the transpiler; compose consumes the canonical manifest
// directly.
func deployStack(ctx context.Context, opts *config.Options, mode envfile.Mode, log *zap.SugaredLogger) error {
	switch mode {
	case envfile.ModeSwarm:
		backend, docker, err := swarmBackend(opts, log)
		if err != nil {
			return err
		}
		defer docker.Close()
		registry := registryFromEnv(opts.Dir)
		if !swarm.HasRegistryAuth(registry) {
			log.Warnw("no registry credentials found; private image pulls will fail on worker nodes", "registry", registry)
		}
		data, err := transpiledManifest(ctx, opts, log)
		if err != nil {
			return err
		}
		return backend.Deploy(ctx, data)
	default:
		eng := composeEngine(opts, log)
		if err := eng.Pull(ctx); err != nil {
			return err
		}
		return eng.Up(ctx)
	}
}

func registryFromEnv(dir string) string {
	set, err := envfile.Load(envfile.Path(dir))
	if err != nil {
		return ""
	}
	return set.Lookup(envfile.KeyRegistry)
}
