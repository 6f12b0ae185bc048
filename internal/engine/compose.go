// Package engine wraps the docker compose CLI for single-node deployments.
// The canonical manifest is consumed directly; no transformation is applied
// in this mode, so constructs the swarm backend rejects (profiles,
// container_name, depends_on) all stay in effect.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// Engine invokes docker compose against one manifest/env file pair.
type Engine struct {
	ComposeFile string
	EnvFile     string
	ProjectName string
	// Profiles enables optional services; the reverse proxy sits behind the
	// "traefik" profile.
	Profiles []string
	// ExtraArgs are operator-supplied arguments appended to every compose
	// invocation (already split, see config.Options.EngineArgv).
	ExtraArgs []string

	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.SugaredLogger
}

// New returns an Engine for the given manifest and env file paths.
func New(composeFile, envFile, projectName string, log *zap.SugaredLogger) *Engine {
	return &Engine{
		ComposeFile: composeFile,
		EnvFile:     envFile,
		ProjectName: projectName,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Log:         log,
	}
}

func (e *Engine) args(sub ...string) []string {
	args := []string{"compose", "-f", e.ComposeFile}
	if e.EnvFile != "" {
		args = append(args, "--env-file", e.EnvFile)
	}
	if e.ProjectName != "" {
		args = append(args, "-p", e.ProjectName)
	}
	for _, p := range e.Profiles {
		args = append(args, "--profile", p)
	}
	args = append(args, e.ExtraArgs...)
	return append(args, sub...)
}

// run spawns docker with inherited stdio. A non-zero exit is returned as-is
// so the caller can propagate the engine's exit code verbatim.
func (e *Engine) run(ctx context.Context, sub ...string) error {
	args := e.args(sub...)
	if e.Log != nil {
		e.Log.Debugw("exec", "cmd", "docker", "args", args)
	}
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// Up creates and starts the stack in the background.
func (e *Engine) Up(ctx context.Context) error {
	return e.run(ctx, "up", "-d", "--remove-orphans")
}

// Down stops and removes containers and networks, keeping volumes.
func (e *Engine) Down(ctx context.Context) error {
	return e.run(ctx, "down")
}

// DownVolumes removes the stack including its named volumes.
func (e *Engine) DownVolumes(ctx context.Context) error {
	return e.run(ctx, "down", "--volumes")
}

// Stop halts containers without removing them.
func (e *Engine) Stop(ctx context.Context) error {
	return e.run(ctx, "stop")
}

// Restart restarts all services.
func (e *Engine) Restart(ctx context.Context) error {
	return e.run(ctx, "restart")
}

// Pull fetches current images for every service.
func (e *Engine) Pull(ctx context.Context) error {
	return e.run(ctx, "pull")
}

// Status lists service state via compose ps.
func (e *Engine) Status(ctx context.Context) error {
	return e.run(ctx, "ps")
}

// Logs tails service logs. tail < 0 means all lines.
func (e *Engine) Logs(ctx context.Context, follow bool, tail int, services ...string) error {
	sub := []string{"logs"}
	if follow {
		sub = append(sub, "-f")
	}
	if tail >= 0 {
		sub = append(sub, "--tail", strconv.Itoa(tail))
	}
	sub = append(sub, services...)
	return e.run(ctx, sub...)
}

// Render resolves variable references by running the engine's own
// render/validate mode and capturing its output. This is the transpiler's
// Renderer; a failure here is recoverable upstream.
func (e *Engine) Render(ctx context.Context) ([]byte, error) {
	args := e.args("config")
	if e.Log != nil {
		e.Log.Debugw("exec", "cmd", "docker", "args", args)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker compose config: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// ExecInService runs a command inside a running service container with
// stdin/stdout wired through; used by the database backup path.
func (e *Engine) ExecInService(ctx context.Context, service string, stdin io.Reader, stdout, stderr io.Writer, command ...string) error {
	sub := append([]string{"exec", "-T", service}, command...)
	args := e.args(sub...)
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}
