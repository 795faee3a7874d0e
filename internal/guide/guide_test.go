package guide

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/mark3labs/runway/internal/snippet"
	"github.com/mark3labs/runway/internal/spec"
)

const petstore = `openapi: 3.0.0
info:
  title: Pet API
  version: "1.2.0"
servers:
  - url: https://api.pets.io/v1
  - url: https://staging.pets.io
components:
  securitySchemes:
    BearerAuth:
      type: http
      scheme: bearer
security:
  - BearerAuth: []
paths:
  /pets/{petId}:
    get:
      summary: Get a pet
      parameters:
        - in: path
          name: petId
          required: true
          example: 7
          schema:
            type: integer
      responses:
        "200": {description: ok}
  /health:
    get:
      summary: Health check
      responses:
        "200": {description: ok}
  /pets:
    get:
      summary: List pets
      responses:
        "200": {description: ok}
    post:
      summary: Create a pet
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                  example: Rex
                tag:
                  type: string
      responses:
        "201": {description: created}
`

func build(t *testing.T, opts ...Option) *Guide {
	t.Helper()
	g, err := Build(context.Background(), petstore, opts...)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func TestBuild_PicksQuickWin(t *testing.T) {
	t.Parallel()
	g := build(t)
	if g.Endpoint.ID() != "GET /health" {
		t.Fatalf("expected GET /health, got %s", g.Endpoint.ID())
	}
	if g.BaseURL != "https://api.pets.io/v1" {
		t.Fatalf("unexpected base url %s", g.BaseURL)
	}
	if g.Source != spec.InlineLocation {
		t.Fatalf("unexpected source %q", g.Source)
	}
	if g.Auth == nil || g.Auth.SchemeName != "BearerAuth" || g.Auth.EnvVar != "BEARERAUTH_TOKEN" {
		t.Fatalf("unexpected auth plan %+v", g.Auth)
	}
	if len(g.Snippets) != 3 {
		t.Fatalf("expected 3 snippets, got %d", len(g.Snippets))
	}
	curl, ok := g.Snippet(snippet.Curl)
	if !ok || !strings.HasPrefix(curl.Code, `curl -X GET "https://api.pets.io/v1/health"`) {
		t.Fatalf("unexpected curl snippet %+v", curl)
	}
	for _, alt := range g.Alternatives {
		if alt.Same(g.Endpoint) {
			t.Fatalf("alternatives must not repeat the selected endpoint")
		}
	}
	if len(g.Alternatives) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(g.Alternatives))
	}
}

func TestBuild_NoEndpoints(t *testing.T) {
	t.Parallel()
	raw := "openapi: 3.0.0\ninfo:\n  title: Empty\n  version: \"1\"\npaths: {}\n"
	if _, err := Build(context.Background(), raw); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expected ErrNoEndpoints, got %v", err)
	}
}

func TestBuild_LoadErrorsPassThrough(t *testing.T) {
	t.Parallel()
	_, err := Build(context.Background(), "{not json")
	var mse *spec.MalformedSpecError
	if !errors.As(err, &mse) {
		t.Fatalf("expected MalformedSpecError, got %v", err)
	}
}

func TestBuild_ExplicitEndpoint(t *testing.T) {
	t.Parallel()
	g := build(t, WithEndpoint(spec.POST, "/pets"))
	if g.Endpoint.ID() != "POST /pets" {
		t.Fatalf("unexpected endpoint %s", g.Endpoint.ID())
	}
	py, _ := g.Snippet(snippet.Python)
	if !strings.Contains(py.Code, `"name": "Rex"`) || strings.Contains(py.Code, `"tag"`) {
		t.Fatalf("unexpected python body:\n%s", py.Code)
	}

	if _, err := Build(context.Background(), petstore, WithEndpoint(spec.DELETE, "/pets")); !errors.Is(err, ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound, got %v", err)
	}
}

func TestBuild_ServerSelection(t *testing.T) {
	t.Parallel()
	if g := build(t, WithServer(1)); g.BaseURL != "https://staging.pets.io" {
		t.Fatalf("unexpected base url %s", g.BaseURL)
	}
	if g := build(t, WithServer(1), WithBaseURL(" http://localhost:8080 ")); g.BaseURL != "http://localhost:8080" {
		t.Fatalf("override should win, got %s", g.BaseURL)
	}
	if _, err := Build(context.Background(), petstore, WithServer(5)); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestBuild_FormatsAndAlternatives(t *testing.T) {
	t.Parallel()
	g := build(t, WithFormats(snippet.Python, snippet.Curl), WithAlternatives(1))
	if len(g.Snippets) != 2 || g.Snippets[0].Format != snippet.Python || g.Snippets[1].Format != snippet.Curl {
		t.Fatalf("unexpected snippets %+v", g.Snippets)
	}
	if len(g.Alternatives) != 1 {
		t.Fatalf("expected one alternative, got %d", len(g.Alternatives))
	}
}

func TestBuild_Filters(t *testing.T) {
	t.Parallel()
	g := build(t, WithFilters(spec.WithPathPatterns([]string{`^/pets`})))
	if g.Endpoint.ID() != "GET /pets" {
		t.Fatalf("expected GET /pets after filtering, got %s", g.Endpoint.ID())
	}
}

func TestRebuild(t *testing.T) {
	t.Parallel()
	g := build(t, WithFormats(snippet.Curl))
	next, err := Rebuild(g, spec.GET, "/pets/{petId}")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if g.Endpoint.ID() != "GET /health" {
		t.Fatalf("original guide was modified")
	}
	if len(next.Snippets) != 1 || !strings.Contains(next.Snippets[0].Code, "/pets/7") {
		t.Fatalf("unexpected rebuilt snippets %+v", next.Snippets)
	}
	if _, err := Rebuild(g, spec.GET, "/nope"); !errors.Is(err, ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound, got %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()
	a, err := Markdown(build(t))
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	b, _ := Markdown(build(t))
	if a != b {
		t.Fatalf("two runs differ:\n%s\n---\n%s", a, b)
	}
}

func TestBuild_LogsLintWarnings(t *testing.T) {
	t.Parallel()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	raw := "openapi: 3.0.0\ninfo:\n  title: Loose\n  version: \"1\"\npaths:\n  /ping:\n    get:\n      responses: {}\n"
	g, err := Build(context.Background(), raw, WithLogger(logger))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.Warnings) == 0 {
		t.Fatalf("expected lint warnings")
	}
	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.HasPrefix(e.Message, "lint: ") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a logged lint warning")
	}
}

func TestParseEndpointRef(t *testing.T) {
	t.Parallel()
	m, p, err := ParseEndpointRef(" post  /pets ")
	if err != nil || m != spec.POST || p != "/pets" {
		t.Fatalf("unexpected parse %s %s %v", m, p, err)
	}
	for _, bad := range []string{"", "GET", "HEAD /x", "GET pets", "GET /a /b"} {
		if _, _, err := ParseEndpointRef(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
