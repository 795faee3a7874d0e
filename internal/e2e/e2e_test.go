package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	cli "github.com/mark3labs/runway/internal/cli"
)

// bearer-protected spec with a read and a write endpoint
const sampleSpec = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: E2E Sample\n" +
	"  version: '1.0.0'\n" +
	"servers:\n" +
	"  - url: https://api.e2e.dev\n" +
	"components:\n" +
	"  securitySchemes:\n" +
	"    BearerAuth:\n" +
	"      type: http\n" +
	"      scheme: bearer\n" +
	"security:\n" +
	"  - BearerAuth: []\n" +
	"paths:\n" +
	"  /pets:\n" +
	"    get:\n" +
	"      summary: List pets\n" +
	"      tags: [read]\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n" +
	"    post:\n" +
	"      summary: Create a pet\n" +
	"      tags: [write]\n" +
	"      requestBody:\n" +
	"        required: true\n" +
	"        content:\n" +
	"          application/json:\n" +
	"            schema:\n" +
	"              type: object\n" +
	"              required: [name]\n" +
	"              properties:\n" +
	"                name: {type: string, example: Rex}\n" +
	"      responses:\n" +
	"        '201':\n" +
	"          description: created\n"

func writeTempSpec(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(p, []byte(sampleSpec), 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	root := cli.NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("cli execute %v: %v", args, err)
	}
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
	t.Helper()
	var list []string
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		list = append(list, rel)
		_, _ = h.Write([]byte(rel))
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, _ = h.Write(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	sort.Strings(list)
	return list, hex.EncodeToString(h.Sum(nil))
}

func TestE2E_GuideExport_Deterministic(t *testing.T) {
	t.Parallel()
	spec := writeTempSpec(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.md")
	second := filepath.Join(dir, "second.md")

	runCLI(t, "guide", spec, "--export", first)
	runCLI(t, "guide", "--input", spec, "--export", second)

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read %s: %v", first, err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read %s: %v", second, err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("exported guides differ between runs:\n%s\n---\n%s", a, b)
	}
	md := string(a)
	for _, want := range []string{
		"# E2E Sample Quick Start",
		"## Step 1: Set up authentication",
		"export BEARERAUTH_TOKEN=",
		"## Step 2: Make your first request",
		"**GET** `/pets`",
		`curl -X GET "https://api.e2e.dev/pets"`,
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestE2E_Scaffold_Deterministic(t *testing.T) {
	t.Parallel()
	cases := []struct {
		lang  string
		files []string
		check []string
	}{
		{"curl", []string{".env.example", "README.md", "request.sh"}, []string{"bash", "-n", "request.sh"}},
		{"npm", []string{".env.example", "README.md", "index.mjs", "package.json"}, []string{"node", "--check", "index.mjs"}},
		{"python", []string{".env.example", "README.md", "main.py", "requirements.txt"}, []string{"python3", "-m", "py_compile", "main.py"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.lang, func(t *testing.T) {
			t.Parallel()
			spec := writeTempSpec(t)
			dir1 := t.TempDir()
			dir2 := t.TempDir()

			runCLI(t, "scaffold", spec, "--lang", tc.lang, "--endpoint", "POST /pets", "--out", dir1, "--force")
			runCLI(t, "scaffold", spec, "--lang", tc.lang, "--endpoint", "POST /pets", "--out", dir2, "--force")

			files1, sum1 := digestDir(t, dir1)
			files2, sum2 := digestDir(t, dir2)
			if !slicesEqual(files1, files2) || sum1 != sum2 {
				t.Fatalf("generated outputs differ between runs\nfiles1=%v\nfiles2=%v\nsum1=%s\nsum2=%s", files1, files2, sum1, sum2)
			}
			if !slicesEqual(files1, tc.files) {
				t.Fatalf("unexpected files %v, want %v", files1, tc.files)
			}

			env, err := os.ReadFile(filepath.Join(dir1, ".env.example"))
			if err != nil {
				t.Fatalf("read .env.example: %v", err)
			}
			if !strings.Contains(string(env), "BEARERAUTH_TOKEN=") {
				t.Fatalf(".env.example missing secret name: %s", env)
			}

			// Syntax-check the generated program when the interpreter is installed.
			if os.Getenv("RUNWAY_E2E_TOOLS") == "1" && haveCmd(tc.check[0]) {
				if err := runCmdWithTimeout(dir1, time.Minute, tc.check[0], tc.check[1:]...); err != nil {
					t.Fatalf("%s rejected generated code: %v", tc.check[0], err)
				}
			}
		})
	}
}

func haveCmd(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runCmdWithTimeout(dir string, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &execError{err: err, output: out.String()}
	}
	return nil
}

type execError struct {
	err    error
	output string
}

func (e *execError) Error() string { return e.err.Error() + ": " + e.output }

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
