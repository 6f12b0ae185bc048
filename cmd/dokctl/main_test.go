package main

import "testing"

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	want := []string{
		"install", "update", "start", "stop", "restart",
		"status", "logs", "backup", "migrate", "uninstall",
		"config", "history",
	}
	have := map[string]bool{}
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Fatalf("missing subcommand %q", name)
		}
	}
	if !root.SilenceUsage || !root.SilenceErrors {
		t.Fatalf("root command must silence cobra's own error reporting")
	}
}

func TestLifecycleFlagsParse(t *testing.T) {
	start, stop, restart := newLifecycleCommands()
	for _, cmd := range []*struct {
		name string
		c    interface{ ParseFlags([]string) error }
	}{
		{"start", start}, {"stop", stop}, {"restart", restart},
	} {
		if err := cmd.c.ParseFlags([]string{"--dir", "/tmp/x", "--mode", "swarm"}); err != nil {
			t.Fatalf("%s: %v", cmd.name, err)
		}
	}
}
