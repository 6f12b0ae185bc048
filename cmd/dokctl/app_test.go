package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
)

func testOptions(dir string) *config.Options {
	opts := config.NewOptions()
	opts.Dir = dir
	return opts
}

func TestComposeEngineEnablesTraefikProfileFromEnv(t *testing.T) {
	dir := t.TempDir()
	set := envfile.New()
	set.Set(envfile.KeyTraefikEnabled, "true")
	if err := set.WriteFile(envfile.Path(dir)); err != nil {
		t.Fatalf("write env: %v", err)
	}

	eng := composeEngine(testOptions(dir), zap.NewNop().Sugar())
	if len(eng.Profiles) != 1 || eng.Profiles[0] != "traefik" {
		t.Fatalf("profiles = %v, want [traefik]", eng.Profiles)
	}
}

func TestComposeEngineMissingEnvIsQuiet(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	eng := composeEngine(testOptions(t.TempDir()), zap.New(core).Sugar())
	if len(eng.Profiles) != 0 {
		t.Fatalf("profiles = %v, want none", eng.Profiles)
	}
	if logs.Len() != 0 {
		t.Fatalf("a missing env file should not warn, got %v", logs.All())
	}
}

func TestComposeEngineUnreadableEnvWarns(t *testing.T) {
	dir := t.TempDir()
	// A directory at the .env path makes the read fail with something other
	// than not-exist.
	if err := os.Mkdir(filepath.Join(dir, envfile.FileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	core, logs := observer.New(zap.WarnLevel)
	eng := composeEngine(testOptions(dir), zap.New(core).Sugar())
	if len(eng.Profiles) != 0 {
		t.Fatalf("profiles = %v, want none", eng.Profiles)
	}
	found := false
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, "environment file unreadable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning about the unreadable env file, got %v", logs.All())
	}
}
