package emitter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/snippet"
	"github.com/mark3labs/runway/internal/spec"
)

func sampleGuide(t *testing.T) *guide.Guide {
	t.Helper()
	s := &spec.Spec{
		Title:           "Sample API",
		Version:         "1.0.0",
		Servers:         []spec.Server{{URL: "https://api.sample.io"}},
		Endpoints:       []spec.Endpoint{{Path: "/health", Method: spec.GET, Summary: "Health"}},
		SecuritySchemes: spec.SecuritySchemes{"key": &spec.APIKeyScheme{Name: "X-Key", In: spec.InHeader}},
		DefaultSecurity: []spec.SecurityRequirement{{{Name: "key"}}},
	}
	g, err := guide.FromSpec(s, guide.WithFormats(snippet.Curl))
	if err != nil {
		t.Fatalf("guide: %v", err)
	}
	return g
}

func TestProjectName(t *testing.T) {
	t.Parallel()
	g := sampleGuide(t)
	if got := ProjectName(g, Options{}); got != "sample-api-quickstart" {
		t.Fatalf("unexpected derived name %q", got)
	}
	if got := ProjectName(g, Options{Name: " My Tool/x "}); got != "my-tool-x" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := ProjectName(nil, Options{}); got != "api-quickstart" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}

func TestFinish_DryRunPlansSorted(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Finish(context.Background(), "x", Files{"b.txt": []byte("bb"), "a/run.sh": []byte("#!")}, Options{OutDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(res.Planned) != 2 || res.Planned[0].RelPath != "a/run.sh" || res.Planned[1].Size != 2 {
		t.Fatalf("unexpected plan %+v", res.Planned)
	}
	if res.Planned[0].Mode != 0o755 || res.Planned[1].Mode != 0o644 {
		t.Fatalf("unexpected modes %+v", res.Planned)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected no files written on dry-run")
	}
}

func TestFinish_WritesAndRefusesNonEmpty(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")
	files := Files{"nested/file.txt": []byte("hello")}
	if _, err := Finish(context.Background(), "x", files, Options{OutDir: dir}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "nested", "file.txt"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("unexpected content %q (%v)", data, err)
	}
	if _, err := Finish(context.Background(), "x", files, Options{OutDir: dir}); err == nil {
		t.Fatalf("expected error on non-empty dir without force")
	}
	if _, err := Finish(context.Background(), "x", Files{"nested/file.txt": []byte("bye")}, Options{OutDir: dir, Force: true}); err != nil {
		t.Fatalf("force: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "nested", "file.txt"))
	if string(data) != "bye" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Check(ctx, sampleGuide(t), Options{OutDir: "x"}); err == nil {
		t.Fatalf("expected context error")
	}
	if err := Check(context.Background(), nil, Options{OutDir: "x"}); err == nil {
		t.Fatalf("expected nil guide error")
	}
	if err := Check(context.Background(), sampleGuide(t), Options{}); err == nil {
		t.Fatalf("expected OutDir error")
	}
}

func TestReadmeAndEnv(t *testing.T) {
	t.Parallel()
	g := sampleGuide(t)
	readme, err := Readme(g, "./request.sh")
	if err != nil {
		t.Fatalf("readme: %v", err)
	}
	if !strings.HasPrefix(string(readme), "# Sample API Quick Start\n") ||
		!strings.HasSuffix(string(readme), "## Run it\n\n```bash\nexport KEY_API_KEY=...\n./request.sh\n```\n") {
		t.Fatalf("unexpected readme:\n%s", readme)
	}
	if env := string(EnvExample(g)); !strings.Contains(env, "KEY_API_KEY=\n") {
		t.Fatalf("unexpected env example:\n%s", env)
	}
}

func TestCode_GeneratesMissingFormats(t *testing.T) {
	t.Parallel()
	g := sampleGuide(t)
	code, err := Code(g, snippet.Python)
	if err != nil {
		t.Fatalf("code: %v", err)
	}
	if !strings.HasPrefix(string(code), "import requests\n") || !strings.HasSuffix(string(code), "print(response.json())\n") {
		t.Fatalf("unexpected python code:\n%s", code)
	}
	if _, err := Code(g, "ruby"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
