// Package dockerapi is the thin adapter over the Docker engine API used for
// read-only inspection: stack service health, legacy service environment,
// and node addresses. Deploy and remove go through the docker CLI instead,
// since stack deploy has no engine API equivalent.
package dockerapi

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	swarmtypes "github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/client"
)

// StackNamespaceLabel marks every service deployed under a stack name.
const StackNamespaceLabel = "com.docker.stack.namespace"

// ServiceNameLabel marks containers with the swarm service that owns them.
const ServiceNameLabel = "com.docker.swarm.service.name"

// Client wraps the SDK client with the few calls this project needs.
type Client struct {
	api *client.Client
}

// New connects using the standard DOCKER_* environment configuration.
func New() (*Client, error) {
	api, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Client{api: api}, nil
}

func (c *Client) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	return c.api.Close()
}

// ServiceInspect returns the full service spec and runtime metadata.
func (c *Client) ServiceInspect(ctx context.Context, name string) (swarmtypes.Service, error) {
	svc, _, err := c.api.ServiceInspectWithRaw(ctx, name, swarmtypes.ServiceInspectOptions{})
	if err != nil {
		return swarmtypes.Service{}, fmt.Errorf("inspect service %s: %w", name, err)
	}
	return svc, nil
}

// NodeList returns every node visible to the engine.
func (c *Client) NodeList(ctx context.Context) ([]swarmtypes.Node, error) {
	nodes, err := c.api.NodeList(ctx, swarmtypes.NodeListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return nodes, nil
}

// StackServices lists the services deployed under a stack name, including
// running/desired task counts.
func (c *Client) StackServices(ctx context.Context, stack string) ([]swarmtypes.Service, error) {
	services, err := c.api.ServiceList(ctx, swarmtypes.ServiceListOptions{
		Filters: filters.NewArgs(filters.Arg("label", StackNamespaceLabel+"="+stack)),
		Status:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("list stack services: %w", err)
	}
	return services, nil
}

// FindServiceContainer returns the ID of a locally running container that
// belongs to the named swarm service, used to exec into stack tasks.
func (c *Client) FindServiceContainer(ctx context.Context, service string) (string, error) {
	containers, err := c.api.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("label", ServiceNameLabel+"="+service)),
	})
	if err != nil {
		return "", fmt.Errorf("list containers for service %s: %w", service, err)
	}
	if len(containers) == 0 {
		return "", fmt.Errorf("no running container for service %s on this node", service)
	}
	return containers[0].ID, nil
}
