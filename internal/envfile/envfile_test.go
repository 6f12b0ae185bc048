package envfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	content := "DEPLOY_MODE=swarm\n# comment\nDOKPLOY_PORT=3000\nPOSTGRES_PASSWORD=\"s3cret\"\nADVERTISE_ADDR=10.0.0.5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantKeys := []string{"DEPLOY_MODE", "DOKPLOY_PORT", "POSTGRES_PASSWORD", "ADVERTISE_ADDR"}
	if !reflect.DeepEqual(set.Keys(), wantKeys) {
		t.Fatalf("keys = %v, want %v", set.Keys(), wantKeys)
	}
	if got := set.Lookup("POSTGRES_PASSWORD"); got != "s3cret" {
		t.Fatalf("quoted value = %q, want s3cret", got)
	}
}

func TestWriteFileAtomicAndRestrictive(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)

	set := New()
	set.Set(KeyDeployMode, "compose")
	set.Set(KeyDBPassword, "hunter2")
	if err := set.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "DEPLOY_MODE=compose\nPOSTGRES_PASSWORD=hunter2\n"
	if string(data) != want {
		t.Fatalf("content = %q, want %q", data, want)
	}

	// No temp file droppings after a successful rewrite.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only %s in dir, got %d entries", FileName, len(entries))
	}
}

func TestSetReplacesInPlace(t *testing.T) {
	set := New()
	set.Set("A", "1")
	set.Set("B", "2")
	set.Set("A", "3")
	if !reflect.DeepEqual(set.Keys(), []string{"A", "B"}) {
		t.Fatalf("keys = %v", set.Keys())
	}
	if v := set.Lookup("A"); v != "3" {
		t.Fatalf("A = %q, want 3", v)
	}
}

func TestGetModeMissingFileDefaultsToCompose(t *testing.T) {
	mode, err := GetMode(t.TempDir())
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if mode != ModeCompose {
		t.Fatalf("mode = %s, want %s", mode, ModeCompose)
	}
}

func TestGetModeReadsPersistedValue(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("DEPLOY_MODE=swarm\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	mode, err := GetMode(dir)
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if mode != ModeSwarm {
		t.Fatalf("mode = %s, want %s", mode, ModeSwarm)
	}
}

func TestGetModeUnknownValueFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("DEPLOY_MODE=kubernetes\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	mode, err := GetMode(dir)
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if mode != ModeCompose {
		t.Fatalf("mode = %s, want fallback %s", mode, ModeCompose)
	}
}
