// File: cmd/dokctl/confirm.go
// Brief: Shared confirmation prompts for destructive commands.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/amirhmoradi/dokploy-enhanced/internal/manifest"
)

// confirmAction asks the operator for a literal "yes" before proceeding.
// Commands with --yes skip the prompt; without a TTY the command refuses
// rather than hanging.
func confirmAction(ctx context.Context, in io.Reader, out io.Writer, approved bool, prompt string) error {
	if out == nil {
		return errors.New("confirmation output is nil")
	}
	if approved {
		return nil
	}
	if !interactiveTTY(in) {
		return errors.New("refusing to proceed without confirmation; rerun with --yes")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = "Confirm:"
	}
	fmt.Fprint(out, prompt+" ")

	line, err := readLine(ctx, in)
	if err != nil {
		fmt.Fprintln(out)
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(line), "yes") {
		return errors.New("aborted")
	}
	return nil
}

// promptDecision resolves a manifest conflict interactively. Without a TTY
// the conflict aborts, matching the generator's non-interactive default.
func promptDecision(ctx context.Context, in io.Reader, out io.Writer) manifest.DecideFunc {
	return func(composePath string) manifest.Decision {
		if !interactiveTTY(in) {
			return manifest.DecisionAbort
		}
		fmt.Fprintf(out, "%s already exists.\n", composePath)
		fmt.Fprint(out, "[o]verwrite, [b]ackup then overwrite, [k]eep, [a]bort? ")
		line, err := readLine(ctx, in)
		if err != nil {
			fmt.Fprintln(out)
			return manifest.DecisionAbort
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "o", "overwrite":
			return manifest.DecisionOverwrite
		case "b", "backup":
			return manifest.DecisionBackup
		case "k", "keep":
			return manifest.DecisionKeep
		default:
			return manifest.DecisionAbort
		}
	}
}

// readLine reads one line, abandoning the blocked read when ctx is canceled.
func readLine(ctx context.Context, in io.Reader) (string, error) {
	reader := bufio.NewReader(in)
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return "", res.err
		}
		return res.line, nil
	}
}

func interactiveTTY(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		// Test readers count as interactive so prompts stay exercisable.
		return true
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
