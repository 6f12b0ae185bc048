package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
)

func TestConfirmActionApprovedSkipsPrompt(t *testing.T) {
	var out bytes.Buffer
	err := confirmAction(context.Background(), strings.NewReader(""), &out, true, "Proceed?")
	if err != nil {
		t.Fatalf("confirmAction: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("prompt was written despite --yes: %q", out.String())
	}
}

func TestConfirmActionAcceptsYes(t *testing.T) {
	var out bytes.Buffer
	err := confirmAction(context.Background(), strings.NewReader("yes\n"), &out, false, "Proceed?")
	if err != nil {
		t.Fatalf("confirmAction: %v", err)
	}
	if !strings.Contains(out.String(), "Proceed?") {
		t.Fatalf("prompt missing: %q", out.String())
	}
}

func TestConfirmActionRejectsAnythingElse(t *testing.T) {
	for _, reply := range []string{"y\n", "no\n", "\n", ""} {
		var out bytes.Buffer
		err := confirmAction(context.Background(), strings.NewReader(reply), &out, false, "Proceed?")
		if err == nil {
			t.Fatalf("reply %q was accepted", reply)
		}
	}
}

func TestConfirmActionCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	// A reader that never produces a line.
	blocked, _ := newBlockedReader()
	err := confirmAction(ctx, blocked, &out, false, "Proceed?")
	if err == nil {
		t.Fatalf("expected the canceled context to abort the prompt")
	}
}

// newBlockedReader returns a reader whose Read never completes until the
// write end is closed.
func newBlockedReader() (*blockedReader, func()) {
	ch := make(chan struct{})
	return &blockedReader{ch: ch}, func() { close(ch) }
}

type blockedReader struct{ ch chan struct{} }

func (b *blockedReader) Read([]byte) (int, error) {
	<-b.ch
	return 0, nil
}

func TestPromptDecisionChoices(t *testing.T) {
	cases := []struct {
		reply string
		want  manifest.Decision
	}{
		{"o\n", manifest.DecisionOverwrite},
		{"overwrite\n", manifest.DecisionOverwrite},
		{"b\n", manifest.DecisionBackup},
		{"k\n", manifest.DecisionKeep},
		{"a\n", manifest.DecisionAbort},
		{"whatever\n", manifest.DecisionAbort},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		decide := promptDecision(context.Background(), strings.NewReader(tc.reply), &out)
		if got := decide("/etc/dokploy/docker-compose.yml"); got != tc.want {
			t.Fatalf("reply %q: decision = %v, want %v", tc.reply, got, tc.want)
		}
		if !strings.Contains(out.String(), "already exists") {
			t.Fatalf("conflict prompt missing: %q", out.String())
		}
	}
}
