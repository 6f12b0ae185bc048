// Package manifest generates the canonical compose manifest and the
// environment file for a dokploy installation.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
	"go.uber.org/zap"
)

// ComposeFileName is the canonical manifest name inside the installation
// directory.
const ComposeFileName = "docker-compose.yml"

// Defaults applied when install-time options are left empty.
const (
	DefaultRegistry = "docker.io"
	DefaultImage    = "amirhmoradi/dokploy-enhanced"
	DefaultVersion  = "latest"
	DefaultPort     = 3000
)

// ComposePath returns the manifest path for an installation directory.
func ComposePath(dir string) string {
	return filepath.Join(dir, ComposeFileName)
}

// Decision resolves a generation conflict when artifacts already exist. The
// generator receives the decision, never the prompt; interactive UX lives in
// the command layer.
type Decision int

const (
	DecisionAbort Decision = iota
	DecisionOverwrite
	DecisionBackup
	DecisionKeep
)

// DecideFunc is consulted once when the manifest pair already exists.
type DecideFunc func(composePath string) Decision

// ErrAborted reports that the operator declined to replace existing
// artifacts.
var ErrAborted = errors.New("existing installation kept unchanged; aborted")

// Options carries install-time configuration for generation.
type Options struct {
	Dir           string
	AdvertiseAddr string
	Port          int
	// DBPassword, when set, is used as the database credential. When empty,
	// an existing credential is carried forward, or a fresh one generated on
	// first install.
	DBPassword string
	// ForcePassword regenerates the credential even when one already exists.
	// The existing database keeps its old password until reset, so callers
	// must warn the operator.
	ForcePassword bool
	Registry      string
	Image         string
	Version       string
	Mode          envfile.Mode
	EnableTraefik bool

	Log *zap.SugaredLogger
}

// Result describes the written (or kept) artifacts.
type Result struct {
	ComposePath string
	EnvPath     string
	Env         *envfile.EnvironmentSet
	// Kept is set when the operator chose to keep the existing pair.
	Kept bool
	// GeneratedPassword is set when a fresh credential was created.
	GeneratedPassword bool
}

func (o *Options) applyDefaults() error {
	if o.Registry == "" {
		o.Registry = DefaultRegistry
	}
	if o.Image == "" {
		o.Image = DefaultImage
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	mode, err := envfile.ParseMode(string(o.Mode))
	if err != nil {
		return err
	}
	o.Mode = mode
	if o.Log == nil {
		o.Log = zap.NewNop().Sugar()
	}
	return nil
}

// Generate writes the manifest pair into opts.Dir. If either artifact exists
// the conflict is surfaced through decide; the generator never silently
// overwrites. The environment file write is atomic and 0600.
func Generate(opts Options, decide DecideFunc) (*Result, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}
	if opts.Dir == "" {
		return nil, errors.New("target directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create target directory %s: %w", opts.Dir, err)
	}

	composePath := ComposePath(opts.Dir)
	envPath := envfile.Path(opts.Dir)

	// Read the previous environment before any rename so an existing
	// credential can be carried forward.
	prior, err := envfile.Load(envPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read existing environment: %w", err)
	}

	if exists(composePath) || exists(envPath) {
		decision := DecisionAbort
		if decide != nil {
			decision = decide(composePath)
		}
		switch decision {
		case DecisionOverwrite:
		case DecisionBackup:
			if err := backupExisting(composePath, envPath); err != nil {
				return nil, err
			}
		case DecisionKeep:
			if prior == nil {
				prior = envfile.New()
			}
			return &Result{ComposePath: composePath, EnvPath: envPath, Env: prior, Kept: true}, nil
		default:
			return nil, ErrAborted
		}
	}

	password := opts.DBPassword
	generated := false
	if password == "" && !opts.ForcePassword && prior != nil {
		password = prior.Lookup(envfile.KeyDBPassword)
	}
	if password == "" {
		password, err = GeneratePassword()
		if err != nil {
			return nil, err
		}
		generated = true
	}

	composeData, err := renderCompose(templateData{
		EnableTraefik: opts.EnableTraefik,
		Swarm:         opts.Mode == envfile.ModeSwarm,
	})
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(composePath, composeData, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", composePath, err)
	}

	env := envfile.New()
	env.Set(envfile.KeyDeployMode, string(opts.Mode))
	env.Set(envfile.KeyRegistry, opts.Registry)
	env.Set(envfile.KeyImage, opts.Image)
	env.Set(envfile.KeyVersion, opts.Version)
	env.Set(envfile.KeyAdvertiseAddr, opts.AdvertiseAddr)
	env.Set(envfile.KeyPort, strconv.Itoa(opts.Port))
	env.Set(envfile.KeyDBPassword, password)
	env.Set(envfile.KeyTraefikEnabled, strconv.FormatBool(opts.EnableTraefik))
	if err := env.WriteFile(envPath); err != nil {
		return nil, err
	}

	if err := Validate(composePath, env.Map()); err != nil {
		return nil, fmt.Errorf("generated manifest failed validation: %w", err)
	}

	opts.Log.Infow("manifest generated", "dir", opts.Dir, "mode", opts.Mode, "traefik", opts.EnableTraefik)
	return &Result{
		ComposePath:       composePath,
		EnvPath:           envPath,
		Env:               env,
		GeneratedPassword: generated,
	}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func backupExisting(paths ...string) error {
	suffix := time.Now().Format("20060102-150405")
	for _, path := range paths {
		if !exists(path) {
			continue
		}
		backup := fmt.Sprintf("%s.%s.bak", path, suffix)
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("back up %s: %w", path, err)
		}
	}
	return nil
}
