package main

import "testing"

func TestMigrateCommandFlags(t *testing.T) {
	cmd := newMigrateCommand()
	if cmd.Name() != "migrate" {
		t.Fatalf("name = %q", cmd.Name())
	}
	// The cut-over prompt is skipped with --yes; the recovery overrides ride
	// on the shared option set.
	for _, name := range []string{"yes", "dir", "advertise-addr", "port"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing flag --%s", name)
		}
	}
	if err := cmd.ParseFlags([]string{"--yes", "--dir", "/tmp/x", "--port", "8080"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
}
