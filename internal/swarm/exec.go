package swarm

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// ContainerFinder locates a local container belonging to a swarm service.
type ContainerFinder interface {
	FindServiceContainer(ctx context.Context, service string) (string, error)
}

// ExecRunner runs commands inside a stack service's task container on this
// node, resolving the container through the engine API and delegating the
// exec itself to the docker CLI so stdio streams straight through.
type ExecRunner struct {
	Finder  ContainerFinder
	Service string
}

// Exec resolves the service's local container and runs command inside it.
func (r ExecRunner) Exec(ctx context.Context, command []string, stdout, stderr io.Writer) error {
	id, err := r.Finder.FindServiceContainer(ctx, r.Service)
	if err != nil {
		return err
	}
	args := append([]string{"exec", "-i", id}, command...)
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker exec in %s: %w", r.Service, err)
	}
	return nil
}
