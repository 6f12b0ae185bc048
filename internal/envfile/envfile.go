// Package envfile reads and writes the installation's .env file: an ordered
// KEY=VALUE store holding the deploy mode, image coordinates, and the
// generated database credential.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// FileName is the environment file name inside the installation directory.
const FileName = ".env"

// Well-known keys written by the manifest generator and read by both backends.
const (
	KeyDeployMode     = "DEPLOY_MODE"
	KeyRegistry       = "DOKPLOY_REGISTRY"
	KeyImage          = "DOKPLOY_IMAGE"
	KeyVersion        = "DOKPLOY_VERSION"
	KeyAdvertiseAddr  = "ADVERTISE_ADDR"
	KeyPort           = "DOKPLOY_PORT"
	KeyDBPassword     = "POSTGRES_PASSWORD"
	KeyTraefikEnabled = "TRAEFIK_ENABLED"
)

type pair struct {
	key   string
	value string
}

// EnvironmentSet is an ordered KEY=VALUE mapping. Order is preserved so the
// file stays diffable across rewrites.
type EnvironmentSet struct {
	pairs []pair
	index map[string]int
}

// New returns an empty EnvironmentSet.
func New() *EnvironmentSet {
	return &EnvironmentSet{index: map[string]int{}}
}

// Set inserts or replaces a key, keeping the original position on replace.
func (e *EnvironmentSet) Set(key, value string) {
	if i, ok := e.index[key]; ok {
		e.pairs[i].value = value
		return
	}
	e.index[key] = len(e.pairs)
	e.pairs = append(e.pairs, pair{key: key, value: value})
}

// Get returns the value for key and whether it is present.
func (e *EnvironmentSet) Get(key string) (string, bool) {
	i, ok := e.index[key]
	if !ok {
		return "", false
	}
	return e.pairs[i].value, true
}

// Lookup returns the value for key or the empty string.
func (e *EnvironmentSet) Lookup(key string) string {
	v, _ := e.Get(key)
	return v
}

// Keys returns the keys in file order.
func (e *EnvironmentSet) Keys() []string {
	keys := make([]string, len(e.pairs))
	for i, p := range e.pairs {
		keys[i] = p.key
	}
	return keys
}

// Len returns the number of stored pairs.
func (e *EnvironmentSet) Len() int {
	return len(e.pairs)
}

// Map returns a copy of the set as an unordered map, for interpolation.
func (e *EnvironmentSet) Map() map[string]string {
	out := make(map[string]string, len(e.pairs))
	for _, p := range e.pairs {
		out[p.key] = p.value
	}
	return out
}

// Path returns the environment file path for an installation directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the environment file at path. Key order comes from a line scan;
// value semantics (quoting, escapes) are delegated to godotenv so hand-edited
// files parse the same way the compose engine parses them.
func Load(path string) (*EnvironmentSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	values, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	set := New()
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		trimmed = strings.TrimPrefix(trimmed, "export ")
		key, raw, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if v, ok := values[key]; ok {
			set.Set(key, v)
		} else {
			set.Set(key, strings.TrimSpace(raw))
		}
	}
	return set, nil
}

// WriteFile persists the set as newline-separated KEY=VALUE pairs. The write
// is a whole-file atomic rewrite (temp file in the same directory + rename)
// with 0600 permissions since the file carries the database credential.
func (e *EnvironmentSet) WriteFile(path string) error {
	var b strings.Builder
	for _, p := range e.pairs {
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
		b.WriteByte('\n')
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".env-*")
	if err != nil {
		return fmt.Errorf("create temp env file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod env file: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("write env file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close env file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
