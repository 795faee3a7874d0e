package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "runway.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool

	out io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample runway configuration file",
		Long:  "Scaffold a commented runway configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force, out: cmd.OutOrStdout()})
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	if err := writeConfigFile(absPath, strings.TrimSpace(sampleConfigYAML)+"\n"); err != nil {
		return newUsageError(fmt.Sprintf("init: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	w := cfg.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Wrote sample config to %s\n", absPath)
	return nil
}

// writeConfigFile replaces path with content through a temp file in the
// same directory, so readers never see a partial file.
func writeConfigFile(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".runway-*.yaml")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot write temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot place file at %s: %w", path, err)
	}
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# runway configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: ./openapi.yaml

# HTTP timeout when fetching a remote document.
# timeout: 10s

# Endpoint to showcase instead of the best ranked one.
# endpoint: GET /pets

# Index of the declared server to use, or a base URL override.
# server: 0
# baseUrl: http://localhost:8080

# Snippet formats to render (curl|fetch|python).
# formats: [curl, fetch, python]

# Only consider operations with these tags (comma-separated or list).
# includeTags: [public,read]

# Ignore operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only consider paths matching these regular expressions.
# paths: ["^/v1/"]

# How many other endpoints to suggest (-1 for all).
# alternatives: 5

# Used by the guide command to export Markdown, save to the local store or print JSON.
# export: QUICKSTART.md
# save: false
# storeDir: ~/.config/runway/guides
# json: false

# Used by the scaffold command: project kind (curl|npm|python), output directory and name.
# lang: curl
# out: ./quickstart
# name: petstore-quickstart
# dryRun: false
# force: false

# Logging on stderr.
# verbose: false
# logFormat: text
`
