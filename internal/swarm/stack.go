// Package swarm deploys the transpiled manifest as a Docker Swarm stack and
// reports stack health.
package swarm

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	swarmtypes "github.com/docker/docker/api/types/swarm"
	"go.uber.org/zap"
)

// DefaultStackName is the stack namespace all services deploy under.
const DefaultStackName = "dokploy"

// StackFileName is where the transpiled manifest is written before deploy,
// kept on disk for inspection; it is regenerated on every deploy.
const StackFileName = "docker-stack.yml"

// StatusClient lists the services of a deployed stack.
type StatusClient interface {
	StackServices(ctx context.Context, stack string) ([]swarmtypes.Service, error)
}

// Backend drives docker stack deploy/rm and best-effort status queries.
type Backend struct {
	Dir       string
	StackName string
	Docker    StatusClient

	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.SugaredLogger
}

// New returns a Backend writing its stack file into dir.
func New(dir string, docker StatusClient, log *zap.SugaredLogger) *Backend {
	return &Backend{
		Dir:       dir,
		StackName: DefaultStackName,
		Docker:    docker,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Log:       log,
	}
}

// StackFilePath returns the on-disk location of the transpiled manifest.
func (b *Backend) StackFilePath() string {
	return filepath.Join(b.Dir, StackFileName)
}

func (b *Backend) deployArgs() []string {
	return []string{"stack", "deploy", "--compose-file", b.StackFilePath(), "--with-registry-auth", "--detach=false", b.StackName}
}

// Deploy writes the transpiled manifest and hands it to the stack engine,
// forwarding registry credentials. A deploy failure is fatal to the calling
// command; the engine's diagnostic is surfaced verbatim on stderr.
func (b *Backend) Deploy(ctx context.Context, manifest []byte) error {
	path := b.StackFilePath()
	if err := os.WriteFile(path, manifest, 0o644); err != nil {
		return fmt.Errorf("write stack file %s: %w", path, err)
	}
	cmd := exec.CommandContext(ctx, "docker", b.deployArgs()...)
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker stack deploy %s: %w", b.StackName, err)
	}
	return nil
}

// Remove tears down every service under the stack name. Failures are logged
// and swallowed so uninstall can continue past an already-removed stack.
func (b *Backend) Remove(ctx context.Context) {
	cmd := exec.CommandContext(ctx, "docker", "stack", "rm", b.StackName)
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	if err := cmd.Run(); err != nil && b.Log != nil {
		b.Log.Warnw("stack rm failed", "stack", b.StackName, "err", err)
	}
}

// ServiceLogs streams one stack service's logs through the engine CLI. The
// service name is qualified with the stack namespace. tail < 0 means all
// lines.
func (b *Backend) ServiceLogs(ctx context.Context, service string, follow bool, tail int) error {
	args := []string{"service", "logs"}
	if follow {
		args = append(args, "-f")
	}
	if tail >= 0 {
		args = append(args, "--tail", strconv.Itoa(tail))
	}
	args = append(args, b.StackName+"_"+service)
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	return cmd.Run()
}

// ServiceStatus is one service's replica health.
type ServiceStatus struct {
	Name    string
	Image   string
	Running uint64
	Desired uint64
}

// Status lists services and their replica counts. Errors degrade to an empty
// result; status is a best-effort inspection used by status and uninstall.
func (b *Backend) Status(ctx context.Context) []ServiceStatus {
	if b.Docker == nil {
		return nil
	}
	services, err := b.Docker.StackServices(ctx, b.StackName)
	if err != nil {
		if b.Log != nil {
			b.Log.Warnw("stack status unavailable", "stack", b.StackName, "err", err)
		}
		return nil
	}
	out := make([]ServiceStatus, 0, len(services))
	for _, svc := range services {
		st := ServiceStatus{Name: svc.Spec.Name}
		if cs := svc.Spec.TaskTemplate.ContainerSpec; cs != nil {
			st.Image = cs.Image
		}
		if svc.ServiceStatus != nil {
			st.Running = svc.ServiceStatus.RunningTasks
			st.Desired = svc.ServiceStatus.DesiredTasks
		}
		out = append(out, st)
	}
	return out
}
