package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesSampleConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("init execute: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "runway configuration") {
		t.Fatalf("unexpected config contents: %s", data)
	}
	if !strings.Contains(out.String(), "Wrote sample config to") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestInit_SampleConfigKeysAreKnown(t *testing.T) {
	t.Parallel()
	for _, line := range strings.Split(sampleConfigYAML, "\n") {
		line = strings.TrimPrefix(line, "# ")
		key, _, ok := strings.Cut(line, ": ")
		if !ok || strings.Contains(key, " ") {
			continue
		}
		if !knownConfigKeys[normalizeKey(key)] {
			t.Errorf("sample config documents unknown key %q", key)
		}
	}
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for existing file without --force")
	}
	if _, ok := err.(usageError); !ok {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}
}
