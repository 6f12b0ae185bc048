// File: internal/config/config.go
// Brief: Internal config package implementation for 'config'.

// Package config defines the flag plumbing and runtime options shared by
// dokctl's commands, translating Cobra/Viper flag values into a strongly
// typed struct the manifest generator and backends consume.
package config

import (
	"fmt"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
)

// DefaultDir is where the manifest pair lives unless overridden.
const DefaultDir = "/etc/dokploy"

// Options holds all CLI configuration shared across dokctl commands.
type Options struct {
	Dir           string
	AdvertiseAddr string
	Port          int
	DBPassword    string
	ForcePassword bool
	Registry      string
	Image         string
	Version       string
	ModeRaw       string
	Mode          envfile.Mode
	Traefik       bool
	Force         bool
	Yes           bool
	EngineArgs    string
	EngineArgv    []string
	LogLevel      string
}

// NewOptions returns Options with defaults applied.
func NewOptions() *Options {
	return &Options{
		Dir:      DefaultDir,
		Traefik:  true,
		LogLevel: "info",
	}
}

// AddFlags binds configuration flags to the provided Cobra command.
func (o *Options) AddFlags(cmd *cobra.Command) {
	o.BindFlags(cmd.Flags())
}

// BindFlags attaches install/deploy flags to an arbitrary FlagSet and returns
// the flag names for further customization.
func (o *Options) BindFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.StringVarP(&o.Dir, "dir", "d", DefaultDir, "Installation directory holding docker-compose.yml and .env")
	names = append(names, "dir")
	fs.StringVar(&o.AdvertiseAddr, "advertise-addr", "", "Address the web UI advertises; auto-detected from a private interface when empty")
	names = append(names, "advertise-addr")
	fs.IntVarP(&o.Port, "port", "p", 0, "Published port for the web UI (default 3000)")
	names = append(names, "port")
	fs.StringVar(&o.DBPassword, "db-password", "", "Postgres password; generated when empty")
	names = append(names, "db-password")
	fs.BoolVar(&o.ForcePassword, "new-db-password", false, "Generate a fresh postgres password even when one exists in .env")
	names = append(names, "new-db-password")
	fs.StringVar(&o.Registry, "registry", "", "Image registry for the application image (default docker.io)")
	names = append(names, "registry")
	fs.StringVar(&o.Image, "image", "", "Application image name")
	names = append(names, "image")
	fs.StringVar(&o.Version, "version", "", "Application image tag (default latest)")
	names = append(names, "version")
	fs.StringVarP(&o.ModeRaw, "mode", "m", "", "Deployment mode: compose or swarm (default: the mode persisted in .env, else compose)")
	names = append(names, "mode")
	fs.BoolVar(&o.Traefik, "traefik", true, "Include the traefik reverse proxy service")
	names = append(names, "traefik")
	fs.BoolVarP(&o.Force, "force", "f", false, "Overwrite existing manifests without prompting")
	names = append(names, "force")
	fs.BoolVarP(&o.Yes, "yes", "y", false, "Assume yes for confirmation prompts")
	names = append(names, "yes")
	fs.StringVar(&o.EngineArgs, "engine-args", "", "Extra arguments passed through to docker compose, shell-quoted")
	names = append(names, "engine-args")
	fs.StringVar(&o.LogLevel, "log-level", "info", "Log verbosity: debug, info, warn, error")
	names = append(names, "log-level")
	return names
}

// Validate ensures provided options are coherent and parses composite values.
func (o *Options) Validate() error {
	o.Dir = strings.TrimSpace(o.Dir)
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("invalid --port value %d (must be between 0 and 65535)", o.Port)
	}
	if raw := strings.TrimSpace(o.ModeRaw); raw != "" {
		mode, err := envfile.ParseMode(raw)
		if err != nil {
			return fmt.Errorf("invalid --mode value %q (allowed: compose, swarm)", o.ModeRaw)
		}
		o.Mode = mode
	}
	if args := strings.TrimSpace(o.EngineArgs); args != "" {
		argv, err := shellwords.Parse(args)
		if err != nil {
			return fmt.Errorf("invalid --engine-args value %q: %w", o.EngineArgs, err)
		}
		o.EngineArgv = argv
	}
	switch strings.ToLower(strings.TrimSpace(o.LogLevel)) {
	case "", "info":
		o.LogLevel = "info"
	case "debug":
		o.LogLevel = "debug"
	case "warn", "warning":
		o.LogLevel = "warn"
	case "error":
		o.LogLevel = "error"
	default:
		return fmt.Errorf("invalid --log-level value %q (allowed: debug, info, warn, error)", o.LogLevel)
	}
	return nil
}

// ResolveMode returns the effective deployment mode: the explicit --mode flag
// when set, otherwise whatever .env persisted, otherwise compose.
func (o *Options) ResolveMode() (envfile.Mode, error) {
	if o.Mode != "" {
		return o.Mode, nil
	}
	return envfile.GetMode(o.Dir)
}
