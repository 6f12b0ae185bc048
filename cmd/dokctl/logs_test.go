package main

import "testing"

// The logs command mirrors the engine CLIs: --tail answers to -n, and
// --follow stays long-form only because -f already means --force everywhere
// else in dokctl.
func TestLogsFlagShorthands(t *testing.T) {
	cmd := newLogsCommand()

	tail := cmd.Flags().Lookup("tail")
	if tail == nil || tail.Shorthand != "n" {
		t.Fatalf("tail shorthand = %v, want n", tail)
	}
	follow := cmd.Flags().Lookup("follow")
	if follow == nil || follow.Shorthand != "" {
		t.Fatalf("follow must have no shorthand, got %v", follow)
	}
	force := cmd.Flags().Lookup("force")
	if force == nil || force.Shorthand != "f" {
		t.Fatalf("force shorthand = %v, want f", force)
	}

	if err := cmd.ParseFlags([]string{"-n", "25", "--follow"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cmd.Flags().Lookup("tail").Value.String(); got != "25" {
		t.Fatalf("tail = %s, want 25", got)
	}
}
