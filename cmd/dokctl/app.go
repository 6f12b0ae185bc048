// app.go holds the plumbing shared by every dokctl command: logger setup,
// backend construction, and the best-effort operation history.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/dockerapi"
	"github.com/amirhmoradi/dokploy-enhanced/internal/engine"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
	"github.com/amirhmoradi/dokploy-enhanced/internal/history"
	"github.com/amirhmoradi/dokploy-enhanced/internal/logging"
	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
	"github.com/amirhmoradi/dokploy-enhanced/internal/swarm"
	"github.com/amirhmoradi/dokploy-enhanced/internal/transpile"
)

// projectName is the compose project / stack namespace everything deploys
// under.
const projectName = "dokploy"

func buildLogger(opts *config.Options) (*zap.SugaredLogger, error) {
	return logging.New(opts.LogLevel)
}

// composeEngine builds the compose backend for an installation directory.
// The traefik profile is enabled according to what .env persisted, so
// lifecycle commands keep touching the same set of services install created.
func composeEngine(opts *config.Options, log *zap.SugaredLogger) *engine.Engine {
	eng := engine.New(manifest.ComposePath(opts.Dir), envfile.Path(opts.Dir), projectName, log)
	eng.ExtraArgs = opts.EngineArgv
	set, err := envfile.Load(envfile.Path(opts.Dir))
	switch {
	case err == nil:
		if set.Lookup(envfile.KeyTraefikEnabled) == "true" {
			eng.Profiles = []string{"traefik"}
		}
	case os.IsNotExist(err):
		// Normal before install; nothing persisted yet.
	default:
		if log != nil {
			log.Warnw("environment file unreadable; proceeding without the traefik profile", "path", envfile.Path(opts.Dir), "err", err)
		}
	}
	return eng
}

// swarmBackend builds the stack backend plus the engine API client it needs
// for status queries. The caller owns closing the client.
func swarmBackend(opts *config.Options, log *zap.SugaredLogger) (*swarm.Backend, *dockerapi.Client, error) {
	docker, err := dockerapi.New()
	if err != nil {
		return nil, nil, err
	}
	return swarm.New(opts.Dir, docker, log), docker, nil
}

// transpiledManifest renders the canonical manifest through the compose
// engine and applies the swarm transform passes, degrading to the canonical
// text when rendering is unavailable.
func transpiledManifest(ctx context.Context, opts *config.Options, log *zap.SugaredLogger) ([]byte, error) {
	canonical, err := os.ReadFile(manifest.ComposePath(opts.Dir))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	res := transpile.Run(ctx, composeEngine(opts, log), canonical)
	if res.Degraded {
		log.Warnw("manifest render unavailable; deploying the canonical manifest and leaving interpolation to the stack engine", "err", res.RenderErr)
	}
	return res.Manifest, nil
}

// recordHistory appends one operation record. History is advisory: any
// failure is logged at debug and otherwise ignored.
func recordHistory(dir, command string, mode envfile.Mode, started time.Time, runErr error, log *zap.SugaredLogger) {
	store, err := history.Open(dir)
	if err != nil {
		if log != nil {
			log.Debugw("history unavailable", "err", err)
		}
		return
	}
	defer store.Close()

	rec := history.Record{
		Command:    command,
		Mode:       string(mode),
		Status:     "ok",
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		rec.Status = "failed"
		rec.Detail = runErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Append(ctx, rec); err != nil && log != nil {
		log.Debugw("history append failed", "err", err)
	}
}
