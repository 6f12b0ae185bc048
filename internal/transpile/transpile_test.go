package transpile

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const renderedFixture = `name: dokploy
services:
  dokploy:
    container_name: dokploy
    depends_on:
      postgres:
        condition: service_started
      redis:
        condition: service_started
    image: dokploy/dokploy:latest
    networks:
      - dokploy-network
    ports:
      - "3000:3000"
    restart: unless-stopped
  postgres:
    container_name: dokploy-postgres
    image: postgres:16
    networks:
      - dokploy-network
  redis:
    image: redis:7
    networks:
      - dokploy-network
  traefik:
    image: traefik:v3.1
    profiles:
      - traefik
    ports:
      - mode: host
        published: "443"
        target: 443
networks:
  dokploy-network:
    driver: overlay
`

func TestTransformRemovesRejectedConstructs(t *testing.T) {
	out := string(Transform([]byte(renderedFixture)))
	for _, banned := range []string{"depends_on", "container_name", "profiles"} {
		if strings.Contains(out, banned) {
			t.Fatalf("output still contains %q:\n%s", banned, out)
		}
	}
	if !strings.HasPrefix(out, "services:") {
		t.Fatalf("top-level name should be stripped, output starts with %q", strings.SplitN(out, "\n", 2)[0])
	}
	// Constructs the stack engine requires pass through unchanged.
	for _, kept := range []string{"image: dokploy/dokploy:latest", "driver: overlay", "- dokploy-network", "restart: unless-stopped"} {
		if !strings.Contains(out, kept) {
			t.Fatalf("output lost %q:\n%s", kept, out)
		}
	}
}

func TestTransformKeepsAllServices(t *testing.T) {
	out := Transform([]byte(renderedFixture))
	var doc struct {
		Services map[string]any `yaml:"services"`
	}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("transpiled output is not parseable YAML: %v", err)
	}
	for _, svc := range []string{"dokploy", "postgres", "redis", "traefik"} {
		if _, ok := doc.Services[svc]; !ok {
			t.Fatalf("service %s missing after transform", svc)
		}
	}
}

func TestTransformIdempotent(t *testing.T) {
	once := Transform([]byte(renderedFixture))
	twice := Transform(once)
	if !bytes.Equal(once, twice) {
		t.Fatalf("transform is not idempotent:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

func TestTransformWithoutDependsOnIsUnchangedByThatPass(t *testing.T) {
	in := []string{
		"services:",
		"  redis:",
		"    image: redis:7",
		"    restart: unless-stopped",
	}
	out := stripIndentBlocks(in, "depends_on:")
	if len(out) != len(in) {
		t.Fatalf("lines removed from manifest without depends_on: %v", out)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("line %d changed: %q -> %q", i, in[i], out[i])
		}
	}
}

func TestStripIndentBlocksPlainList(t *testing.T) {
	in := []string{
		"  app:",
		"    depends_on:",
		"      - db",
		"      - cache",
		"    image: app:1",
	}
	out := stripIndentBlocks(in, "depends_on:")
	want := []string{
		"  app:",
		"    image: app:1",
	}
	if strings.Join(out, "\n") != strings.Join(want, "\n") {
		t.Fatalf("got:\n%s\nwant:\n%s", strings.Join(out, "\n"), strings.Join(want, "\n"))
	}
}

func TestStripIndentBlocksExpandedForm(t *testing.T) {
	in := []string{
		"  app:",
		"    depends_on:",
		"      db:",
		"        condition: service_healthy",
		"",
		"      cache:",
		"        condition: service_started",
		"    image: app:1",
		"  db:",
		"    image: postgres:16",
	}
	out := strings.Join(stripIndentBlocks(in, "depends_on:"), "\n")
	want := strings.Join([]string{
		"  app:",
		"    image: app:1",
		"  db:",
		"    image: postgres:16",
	}, "\n")
	if out != want {
		t.Fatalf("got:\n%s\nwant:\n%s", out, want)
	}
}

// A sibling rendered at the same width as the block key must close the
// block; "not deeper than base" means the block ended even in slightly
// malformed render output.
func TestStripIndentBlocksSiblingAtSameWidthCloses(t *testing.T) {
	in := []string{
		"    depends_on:",
		"      - db",
		"    ports:",
		"      - 8080:8080",
	}
	out := strings.Join(stripIndentBlocks(in, "depends_on:"), "\n")
	want := strings.Join([]string{
		"    ports:",
		"      - 8080:8080",
	}, "\n")
	if out != want {
		t.Fatalf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestUnquotePorts(t *testing.T) {
	cases := []struct{ in, want string }{
		{`      - "8080:8080"`, `      - 8080:8080`},
		{`      - "9443"`, `      - 9443`},
		{`        published: "3000"`, `        published: 3000`},
		// Non-numeric quoted strings stay quoted.
		{`      - "redis-data:/data"`, `      - "redis-data:/data"`},
		{`      - "TZ=UTC"`, `      - "TZ=UTC"`},
		{`    command: "serve"`, `    command: "serve"`},
	}
	for _, tc := range cases {
		got := unquotePorts([]string{tc.in})[0]
		if got != tc.want {
			t.Fatalf("unquotePorts(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type stubRenderer struct {
	out []byte
	err error
}

func (s stubRenderer) Render(context.Context) ([]byte, error) { return s.out, s.err }

func TestRunDegradesToCanonicalOnRenderFailure(t *testing.T) {
	canonical := []byte("services:\n  redis:\n    image: redis:7\n")
	res := Run(context.Background(), stubRenderer{err: errors.New("compose unavailable")}, canonical)
	if !res.Degraded {
		t.Fatalf("expected degraded result")
	}
	if res.RenderErr == nil {
		t.Fatalf("expected render error to be recorded")
	}
	if !bytes.Equal(res.Manifest, Transform(canonical)) {
		t.Fatalf("degraded manifest should be the transformed canonical input")
	}
}

func TestRunUsesRenderedOutput(t *testing.T) {
	res := Run(context.Background(), stubRenderer{out: []byte(renderedFixture)}, []byte("ignored"))
	if res.Degraded {
		t.Fatalf("unexpected degrade: %v", res.RenderErr)
	}
	if !bytes.Equal(res.Manifest, Transform([]byte(renderedFixture))) {
		t.Fatalf("manifest mismatch")
	}
}

// Scenario: app depends on db and cache; after transpile all three services
// remain and no dependency block survives, and a second deploy's transpile
// output is byte-identical.
func TestClusterScenarioStableAcrossRedeploys(t *testing.T) {
	manifest := []byte(`services:
  app:
    image: app:1
    depends_on:
      - db
      - cache
    ports:
      - "8080:8080"
  db:
    image: postgres:16
  cache:
    image: redis:7
`)
	first := Run(context.Background(), stubRenderer{out: manifest}, manifest)
	second := Run(context.Background(), stubRenderer{out: manifest}, manifest)
	if !bytes.Equal(first.Manifest, second.Manifest) {
		t.Fatalf("redeploy produced different output")
	}
	out := string(first.Manifest)
	if strings.Contains(out, "depends_on") {
		t.Fatalf("depends_on survived:\n%s", out)
	}
	if !strings.Contains(out, "- 8080:8080") {
		t.Fatalf("port mapping not unquoted:\n%s", out)
	}
	var doc struct {
		Services map[string]any `yaml:"services"`
	}
	if err := yaml.Unmarshal(first.Manifest, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(doc.Services))
	}
}

func TestPreviewShowsRemovedLines(t *testing.T) {
	rendered := []byte(renderedFixture)
	text, err := Preview(rendered, Transform(rendered))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(text, "-    depends_on:") {
		t.Fatalf("diff missing depends_on removal:\n%s", text)
	}
}
