package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amirhmoradi/dokploy-enhanced/internal/envfile"
)

func freshOptions(dir string) Options {
	return Options{
		Dir:           dir,
		AdvertiseAddr: "192.168.1.10",
		EnableTraefik: true,
	}
}

func TestGenerateFreshInstallDefaultsToComposeMode(t *testing.T) {
	dir := t.TempDir()
	res, err := Generate(freshOptions(dir), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.GeneratedPassword {
		t.Fatalf("expected a generated credential on fresh install")
	}

	mode, err := envfile.GetMode(dir)
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if mode != envfile.ModeCompose {
		t.Fatalf("mode = %s, want default %s", mode, envfile.ModeCompose)
	}

	info, err := os.Stat(res.EnvPath)
	if err != nil {
		t.Fatalf("stat env: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("env perm = %o, want 600", perm)
	}
}

func TestGenerateCredentialIsStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	first, err := Generate(freshOptions(dir), nil)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	firstPassword := first.Env.Lookup(envfile.KeyDBPassword)
	if firstPassword == "" {
		t.Fatalf("no credential written")
	}

	second, err := Generate(freshOptions(dir), func(string) Decision { return DecisionOverwrite })
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if second.GeneratedPassword {
		t.Fatalf("credential silently regenerated")
	}
	if got := second.Env.Lookup(envfile.KeyDBPassword); got != firstPassword {
		t.Fatalf("credential changed: %q -> %q", firstPassword, got)
	}
}

func TestGenerateForcePasswordRegenerates(t *testing.T) {
	dir := t.TempDir()
	first, err := Generate(freshOptions(dir), nil)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	opts := freshOptions(dir)
	opts.ForcePassword = true
	second, err := Generate(opts, func(string) Decision { return DecisionOverwrite })
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if !second.GeneratedPassword {
		t.Fatalf("expected fresh credential with ForcePassword")
	}
	if second.Env.Lookup(envfile.KeyDBPassword) == first.Env.Lookup(envfile.KeyDBPassword) {
		t.Fatalf("credential did not change")
	}
}

func TestGenerateConflictDecisions(t *testing.T) {
	dir := t.TempDir()
	if _, err := Generate(freshOptions(dir), nil); err != nil {
		t.Fatalf("seed Generate: %v", err)
	}

	t.Run("abort", func(t *testing.T) {
		_, err := Generate(freshOptions(dir), func(string) Decision { return DecisionAbort })
		if !errors.Is(err, ErrAborted) {
			t.Fatalf("err = %v, want ErrAborted", err)
		}
	})

	t.Run("nil decide aborts", func(t *testing.T) {
		_, err := Generate(freshOptions(dir), nil)
		if !errors.Is(err, ErrAborted) {
			t.Fatalf("err = %v, want ErrAborted", err)
		}
	})

	t.Run("keep", func(t *testing.T) {
		before, err := os.ReadFile(ComposePath(dir))
		if err != nil {
			t.Fatalf("read manifest: %v", err)
		}
		opts := freshOptions(dir)
		opts.EnableTraefik = false
		res, err := Generate(opts, func(string) Decision { return DecisionKeep })
		if err != nil {
			t.Fatalf("Generate keep: %v", err)
		}
		if !res.Kept {
			t.Fatalf("expected Kept result")
		}
		after, err := os.ReadFile(ComposePath(dir))
		if err != nil {
			t.Fatalf("read manifest: %v", err)
		}
		if string(before) != string(after) {
			t.Fatalf("keep decision rewrote the manifest")
		}
	})

	t.Run("backup", func(t *testing.T) {
		res, err := Generate(freshOptions(dir), func(string) Decision { return DecisionBackup })
		if err != nil {
			t.Fatalf("Generate backup: %v", err)
		}
		if res.Kept {
			t.Fatalf("backup should rewrite, not keep")
		}
		entries, err := filepath.Glob(filepath.Join(dir, "*.bak"))
		if err != nil {
			t.Fatalf("glob: %v", err)
		}
		if len(entries) < 2 {
			t.Fatalf("expected manifest and env backups, got %v", entries)
		}
	})
}

func TestGenerateComposeModeOmitsOverlayNetwork(t *testing.T) {
	dir := t.TempDir()
	if _, err := Generate(freshOptions(dir), nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(ComposePath(dir))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "driver: bridge") {
		t.Fatalf("compose mode should use a bridge network:\n%s", content)
	}
	if strings.Contains(content, "driver: overlay") {
		t.Fatalf("compose mode must not use overlay:\n%s", content)
	}
}

func TestGenerateSwarmModeUsesOverlayNetwork(t *testing.T) {
	dir := t.TempDir()
	opts := freshOptions(dir)
	opts.Mode = envfile.ModeSwarm
	if _, err := Generate(opts, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(ComposePath(dir))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(data), "driver: overlay") {
		t.Fatalf("swarm mode should use an overlay network:\n%s", data)
	}
	mode, err := envfile.GetMode(dir)
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if mode != envfile.ModeSwarm {
		t.Fatalf("mode = %s, want %s", mode, envfile.ModeSwarm)
	}
}

func TestGenerateWithoutTraefikDropsProfileService(t *testing.T) {
	dir := t.TempDir()
	opts := freshOptions(dir)
	opts.EnableTraefik = false
	if _, err := Generate(opts, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(ComposePath(dir))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if strings.Contains(string(data), "traefik") {
		t.Fatalf("traefik should be absent:\n%s", data)
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword()
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	b, err := GeneratePassword()
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if a == b {
		t.Fatalf("two generated passwords are identical")
	}
	if len(a) < 24 {
		t.Fatalf("password too short: %d", len(a))
	}
	if strings.ContainsAny(a, "\"'$ ") {
		t.Fatalf("password contains characters unsafe for env files: %q", a)
	}
}

func TestValidateRejectsUndefinedDependency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ComposeFileName)
	bad := "services:\n  app:\n    image: app:1\n    depends_on:\n      - ghost\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := Validate(path, nil); err == nil {
		t.Fatalf("expected validation error for undefined dependency")
	}
}
