// Package transpile turns the canonical compose manifest into one the swarm
// stack engine accepts. The swarm dialect is a strict subset of the compose
// dialect, so the conversion is a sequence of line-oriented strips and
// rewrites rather than a schema-aware round trip: remove the top-level name,
// profiles blocks, container_name fields, and depends_on blocks, and unquote
// numeric port fields. The passes only need to handle the shapes our own
// generator (and `docker compose config`) emits.
package transpile

import (
	"context"
	"regexp"
	"strings"
)

// Renderer resolves variable references in the canonical manifest, normally
// by shelling out to `docker compose config`.
type Renderer interface {
	Render(ctx context.Context) ([]byte, error)
}

// Result is the transpiled manifest plus a flag recording whether the render
// step had to be skipped.
type Result struct {
	Manifest []byte
	// Degraded is set when rendering failed and the canonical manifest was
	// used verbatim. The swarm engine performs its own interpolation at
	// deploy time, so this is a documented fallback, not an error.
	Degraded bool
	// RenderErr holds the render failure when Degraded is set.
	RenderErr error
}

// Run renders the canonical manifest and applies the transform passes.
// canonical is the unrendered manifest used as the fallback input.
func Run(ctx context.Context, r Renderer, canonical []byte) Result {
	res := Result{}
	rendered, err := r.Render(ctx)
	if err != nil || len(rendered) == 0 {
		res.Degraded = true
		res.RenderErr = err
		rendered = canonical
	}
	res.Manifest = Transform(rendered)
	return res
}

// Transform applies the strip and rewrite passes in order. It is
// deterministic and idempotent: running it over its own output changes
// nothing, since none of the removed constructs can reappear.
func Transform(in []byte) []byte {
	lines := strings.Split(string(in), "\n")
	lines = stripRootName(lines)
	lines = stripListBlocks(lines, "profiles:")
	lines = stripFieldLines(lines, "container_name:")
	lines = unquotePorts(lines)
	lines = stripIndentBlocks(lines, "depends_on:")
	return []byte(strings.Join(lines, "\n"))
}

// stripRootName drops the unindented `name:` line that `docker compose
// config` injects; `docker stack deploy` rejects it.
func stripRootName(lines []string) []string {
	out := lines[:0:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if line == trimmed && strings.HasPrefix(trimmed, "name:") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// stripListBlocks removes every line whose trimmed content equals key and the
// list-item continuation lines that follow it, stopping at the first line
// that is not a list item.
func stripListBlocks(lines []string, key string) []string {
	out := lines[:0:0]
	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == key {
			i++
			for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "- ") {
				i++
			}
			continue
		}
		out = append(out, lines[i])
		i++
	}
	return out
}

// stripFieldLines removes every line whose trimmed content starts with key,
// no matter which service block it appears in.
func stripFieldLines(lines []string, key string) []string {
	out := lines[:0:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), key) {
			continue
		}
		out = append(out, line)
	}
	return out
}

var (
	// published: "8080"  ->  published: 8080
	publishedPortRe = regexp.MustCompile(`^(\s*published:\s*)"(\d+)"\s*$`)
	// - "8080:8080" or - "8080"  ->  - 8080:8080 / - 8080
	shortPortRe = regexp.MustCompile(`^(\s*-\s*)"(\d+(?::\d+)?)"\s*$`)
)

// unquotePorts rewrites quoted numeric published-port fields; the swarm
// schema requires a number there, not a string. Only pure digit or
// digit:digit payloads are touched, so quoted strings elsewhere in the
// manifest are left alone.
func unquotePorts(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if m := publishedPortRe.FindStringSubmatch(line); m != nil {
			out[i] = m[1] + m[2]
			continue
		}
		if m := shortPortRe.FindStringSubmatch(line); m != nil {
			out[i] = m[1] + m[2]
			continue
		}
		out[i] = line
	}
	return out
}

// stripIndentBlocks removes every block opened by a line whose trimmed
// content is exactly key, tracking indentation rather than block shape: the
// rendered depends_on block may be a plain list or the expanded per-
// dependency condition form, and both nest strictly deeper than the key
// line. Blank lines inside the block are dropped with it; the first line at
// or above the key's indentation closes the block and is kept verbatim.
func stripIndentBlocks(lines []string, key string) []string {
	out := lines[:0:0]
	i := 0
	for i < len(lines) {
		line := lines[i]
		if strings.TrimSpace(line) != key {
			out = append(out, line)
			i++
			continue
		}
		base := indentWidth(line)
		i++
		for i < len(lines) {
			next := lines[i]
			if strings.TrimSpace(next) == "" {
				i++
				continue
			}
			if indentWidth(next) > base {
				i++
				continue
			}
			break
		}
	}
	return out
}

func indentWidth(line string) int {
	for i, r := range line {
		if r != ' ' {
			return i
		}
	}
	return len(line)
}
