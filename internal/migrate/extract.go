// Package migrate recovers install-time configuration from a running legacy
// swarm deployment so the backend can be switched without losing data. It
// only reads orchestrator state; the cut-over itself happens through the
// manifest generator.
package migrate

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	swarmtypes "github.com/docker/docker/api/types/swarm"
	"go.uber.org/zap"

	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
)

// Inspector is the read-only slice of the engine API the extractor needs.
type Inspector interface {
	ServiceInspect(ctx context.Context, name string) (swarmtypes.Service, error)
	NodeList(ctx context.Context) ([]swarmtypes.Node, error)
}

// Legacy service names as the original swarm-only installer created them.
const (
	LegacyAppService   = "dokploy_dokploy"
	LegacyDBService    = "dokploy_postgres"
	LegacyCacheService = "dokploy_redis"
)

const defaultAppPort = 3000

// Recovered is the best-effort configuration pulled from the legacy
// deployment. Warnings carries anything the operator must be told, most
// importantly a regenerated database credential.
type Recovered struct {
	AdvertiseAddr string
	DBPassword    string
	Port          int
	Warnings      []string
}

// Extractor inspects the legacy deployment's services.
type Extractor struct {
	Docker       Inspector
	AppService   string
	DBService    string
	CacheService string
	Log          *zap.SugaredLogger
}

// NewExtractor returns an Extractor over the default legacy service names.
func NewExtractor(docker Inspector, log *zap.SugaredLogger) *Extractor {
	return &Extractor{
		Docker:       docker,
		AppService:   LegacyAppService,
		DBService:    LegacyDBService,
		CacheService: LegacyCacheService,
		Log:          log,
	}
}

// Extract recovers address, credential, and port. Every field falls back
// independently; extraction never fails the migration.
func (e *Extractor) Extract(ctx context.Context) (Recovered, error) {
	rec := Recovered{}

	rec.AdvertiseAddr = e.advertiseAddr(ctx)
	if rec.AdvertiseAddr == "" {
		rec.Warnings = append(rec.Warnings, "could not determine the advertise address; configure it manually before deploying")
	}

	password, warned := e.dbPassword(ctx)
	if password == "" {
		var err error
		password, err = manifest.GeneratePassword()
		if err != nil {
			return rec, err
		}
		rec.Warnings = append(rec.Warnings,
			"database credential could not be recovered; a new one was generated — the existing database stays unreachable until its password is reset to match")
	} else if warned != "" {
		rec.Warnings = append(rec.Warnings, warned)
	}
	rec.DBPassword = password

	rec.Port = e.publishedPort(ctx)
	return rec, nil
}

// advertiseAddr prefers the manager node's advertised address and falls back
// to probing this host's private interfaces.
func (e *Extractor) advertiseAddr(ctx context.Context) string {
	nodes, err := e.Docker.NodeList(ctx)
	if err != nil {
		e.logw("node list failed", "err", err)
	} else {
		for _, node := range nodes {
			if node.ManagerStatus == nil || node.ManagerStatus.Addr == "" {
				continue
			}
			if host, _, err := net.SplitHostPort(node.ManagerStatus.Addr); err == nil && host != "" && host != "0.0.0.0" {
				return host
			}
		}
	}
	return ProbePrivateAddr()
}

// dbPassword tries the database service's own environment first, then the
// connection string on the application service.
func (e *Extractor) dbPassword(ctx context.Context) (password, warning string) {
	if svc, err := e.Docker.ServiceInspect(ctx, e.DBService); err == nil {
		if v := serviceEnv(svc, "POSTGRES_PASSWORD"); v != "" {
			return v, ""
		}
	} else {
		e.logw("db service inspect failed", "service", e.DBService, "err", err)
	}

	svc, err := e.Docker.ServiceInspect(ctx, e.AppService)
	if err != nil {
		e.logw("app service inspect failed", "service", e.AppService, "err", err)
		return "", ""
	}
	raw := serviceEnv(svc, "DATABASE_URL")
	if raw == "" {
		return "", ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Sprintf("could not parse DATABASE_URL on %s: %v", e.AppService, err)
	}
	if u.User == nil {
		return "", ""
	}
	if pw, ok := u.User.Password(); ok && pw != "" {
		return pw, ""
	}
	return "", ""
}

// publishedPort reads the application service's published-port metadata.
func (e *Extractor) publishedPort(ctx context.Context) int {
	svc, err := e.Docker.ServiceInspect(ctx, e.AppService)
	if err != nil {
		e.logw("published port lookup failed", "service", e.AppService, "err", err)
		return defaultAppPort
	}
	if svc.Endpoint.Ports != nil {
		for _, p := range svc.Endpoint.Ports {
			if p.TargetPort == defaultAppPort && p.PublishedPort != 0 {
				return int(p.PublishedPort)
			}
		}
		for _, p := range svc.Endpoint.Ports {
			if p.PublishedPort != 0 {
				return int(p.PublishedPort)
			}
		}
	}
	return defaultAppPort
}

func (e *Extractor) logw(msg string, kv ...any) {
	if e.Log != nil {
		e.Log.Warnw(msg, kv...)
	}
}

func serviceEnv(svc swarmtypes.Service, key string) string {
	cs := svc.Spec.TaskTemplate.ContainerSpec
	if cs == nil {
		return ""
	}
	prefix := key + "="
	for _, kv := range cs.Env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix)
		}
	}
	return ""
}

// ProbePrivateAddr walks the host's interfaces for the first private IPv4
// address. No traffic is sent.
func ProbePrivateAddr() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	return ""
}
