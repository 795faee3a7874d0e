// Package emitter writes runnable quick-start projects for a guide. The
// format-specific emitters live in subpackages and share the planning and
// writing code here.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/snippet"
)

// Options controls how an emitter renders a project.
type Options struct {
	OutDir string // required; target directory to write the project
	Name   string // project name; derived from the API title when empty
	Force  bool   // overwrite existing files
	DryRun bool   // don't write, only plan
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files and the resolved project name.
type Result struct {
	Name    string
	Planned []PlannedFile
}

// Files maps slash-separated relative paths to file contents.
type Files map[string][]byte

// ProjectName returns the sanitized name from opts, else one derived from
// the guide's API title.
func ProjectName(g *guide.Guide, opts Options) string {
	if name := SanitizeName(opts.Name); name != "" {
		return name
	}
	if g != nil && g.Spec != nil {
		if name := SanitizeName(DeriveName(g.Spec.Title)); name != "" {
			return name + "-quickstart"
		}
	}
	return "api-quickstart"
}

// Check validates the common inputs of every emitter.
func Check(ctx context.Context, g *guide.Guide, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g == nil || g.Spec == nil {
		return errors.New("emitter: nil guide")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return errors.New("emitter: OutDir is required")
	}
	return nil
}

// Finish plans files in deterministic order and writes them unless
// opts.DryRun is set.
func Finish(ctx context.Context, name string, files Files, opts Options) (*Result, error) {
	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: fileMode(rel)})
	}

	if opts.DryRun {
		abs, err := filepath.Abs(opts.OutDir)
		if err != nil {
			return nil, fmt.Errorf("emitter: resolve output directory: %w", err)
		}
		if err := validateOutputDirectory(abs, opts.Force); err != nil {
			return nil, err
		}
	} else if err := writeFiles(ctx, opts.OutDir, files, opts.Force); err != nil {
		return nil, err
	}
	return &Result{Name: name, Planned: planned}, nil
}

func writeFiles(ctx context.Context, outDir string, files Files, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("emitter: resolve output directory: %w", err)
	}
	if err := validateOutputDirectory(abs, force); err != nil {
		return err
	}
	for rel, content := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileAtomic(abs, rel, content); err != nil {
			return fmt.Errorf("emitter: write file %s: %w", rel, err)
		}
	}
	return nil
}

// validateOutputDirectory accepts a missing or empty directory, or any
// directory when force is set.
func validateOutputDirectory(absPath string, force bool) error {
	stat, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access output directory %q: %w", absPath, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("output path %q is not a directory", absPath)
	}
	if force {
		return nil
	}
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("cannot read output directory %q: %w", absPath, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("output directory %q is not empty (use --force to overwrite)", absPath)
	}
	return nil
}

func writeFileAtomic(baseDir, relPath string, content []byte) error {
	fullPath := filepath.Join(baseDir, filepath.FromSlash(relPath))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure target directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-emitter-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode(relPath)); err != nil {
		return fmt.Errorf("set file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("atomic rename to %s: %w", fullPath, err)
	}
	success = true
	return nil
}

// fileMode marks shell scripts executable.
func fileMode(relPath string) os.FileMode {
	switch filepath.Ext(relPath) {
	case ".sh", ".bash":
		return 0o755
	}
	return 0o644
}

// SanitizeName keeps lowercase letters, digits, dashes and underscores.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ToLower(name)
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// DeriveName turns an API title into a dash-separated name.
func DeriveName(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return ""
	}
	repl := strings.NewReplacer("/", " ", "_", " ", ".", " ", ",", " ", ":", " ")
	return strings.Join(strings.Fields(repl.Replace(t)), "-")
}

// EnvExample lists the credential variable the snippets read, if any.
func EnvExample(g *guide.Guide) []byte {
	var b strings.Builder
	b.WriteString("# Copy to .env and fill in real values. Never commit secrets.\n")
	if g.Auth != nil && g.Auth.EnvVar != "" {
		fmt.Fprintf(&b, "%s=\n", g.Auth.EnvVar)
	}
	return []byte(b.String())
}

// Readme renders the guide as Markdown followed by a "Run it" section
// listing the given shell commands.
func Readme(g *guide.Guide, run ...string) ([]byte, error) {
	md, err := guide.Markdown(g)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(md)
	b.WriteString("\n## Run it\n\n```bash\n")
	if g.Auth != nil && g.Auth.EnvVar != "" {
		fmt.Fprintf(&b, "export %s=...\n", g.Auth.EnvVar)
	}
	for _, cmd := range run {
		b.WriteString(cmd + "\n")
	}
	b.WriteString("```\n")
	return []byte(b.String()), nil
}

// Code returns the snippet source for format f, newline terminated. Formats
// the guide did not render are generated on demand.
func Code(g *guide.Guide, f snippet.Format) ([]byte, error) {
	s, ok := g.Snippet(f)
	if !ok {
		var err error
		if s, err = snippet.GenerateFormat(f, &g.Endpoint, g.BaseURL, g.Auth); err != nil {
			return nil, fmt.Errorf("emitter: %w", err)
		}
	}
	return []byte(s.Code + "\n"), nil
}
