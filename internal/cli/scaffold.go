package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/runway/internal/emitter"
	"github.com/mark3labs/runway/internal/emitter/curlemitter"
	"github.com/mark3labs/runway/internal/emitter/npmemitter"
	"github.com/mark3labs/runway/internal/emitter/pyemitter"
	"github.com/mark3labs/runway/internal/guide"
)

type emitFunc func(context.Context, *guide.Guide, emitter.Options) (*emitter.Result, error)

var emitters = map[string]emitFunc{
	"curl":   curlemitter.Emit,
	"npm":    npmemitter.Emit,
	"python": pyemitter.Emit,
}

// ScaffoldConfig captures all inputs that influence the scaffold command
// after merging defaults, config file values, and CLI overrides.
type ScaffoldConfig struct {
	CommonConfig
	SourceConfig

	Lang   string
	Out    string
	Name   string
	DryRun bool
	Force  bool
}

var scaffoldRunner = runScaffold

func newScaffoldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scaffold [input]",
		Short: "Write a runnable quick-start project for an OpenAPI/Swagger document",
		Long: "Write a small project (shell, Node.js or Python) that performs the guide's " +
			"first request. Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  runway scaffold spec.yaml --lang python --out ./quickstart
  runway --config runway.yaml scaffold --force --dry-run`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveScaffoldConfig(cmd, args)
			if err != nil {
				return err
			}
			return scaffoldRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	addInputFlags(flags)
	addSelectionFlags(flags)
	flags.String("lang", "", "Project kind to emit (curl|npm|python); defaults to curl")
	flags.String("out", "", "Output directory (derived from the API title when omitted)")
	flags.String("name", "", "Override the project/package name")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveScaffoldConfig(cmd *cobra.Command, args []string) (*ScaffoldConfig, error) {
	cfg := ScaffoldConfig{SourceConfig: defaultSourceConfig(), Lang: "curl"}
	if err := resolveCommon(cmd, &cfg.CommonConfig, cfg.SourceConfig.applyKey, cfg.applyKey); err != nil {
		return nil, err
	}
	if err := cfg.SourceConfig.applyFlags(cmd.Flags(), args); err != nil {
		return nil, err
	}
	if err := cfg.applyFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg.SourceConfig.normalize()
	cfg.Lang = strings.ToLower(strings.TrimSpace(cfg.Lang))
	cfg.Out = strings.TrimSpace(cfg.Out)
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Lang == "" {
		cfg.Lang = "curl"
	}
	if _, ok := emitters[cfg.Lang]; !ok {
		return nil, newUsageError(fmt.Sprintf("scaffold: unsupported --lang %q (allowed: curl, npm, python)", cfg.Lang))
	}
	if err := cfg.CommonConfig.validate(); err != nil {
		return nil, err
	}
	if err := cfg.SourceConfig.validate("scaffold"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ScaffoldConfig) applyKey(key, normalized string, value any) (bool, error) {
	var err error
	switch normalized {
	case "lang":
		c.Lang, err = valueAsString(value)
	case "out":
		c.Out, err = valueAsString(value)
	case "name":
		c.Name, err = valueAsString(value)
	case "dryrun":
		c.DryRun, err = valueAsBool(value)
	case "force":
		c.Force, err = valueAsBool(value)
	default:
		return false, nil
	}
	if err != nil {
		return true, configFieldError(key, err)
	}
	return true, nil
}

func (c *ScaffoldConfig) applyFlags(flags *pflag.FlagSet) error {
	var err error
	if flags.Changed("lang") {
		if c.Lang, err = flags.GetString("lang"); err != nil {
			return err
		}
	}
	if flags.Changed("out") {
		if c.Out, err = flags.GetString("out"); err != nil {
			return err
		}
	}
	if flags.Changed("name") {
		if c.Name, err = flags.GetString("name"); err != nil {
			return err
		}
	}
	if flags.Changed("dry-run") {
		if c.DryRun, err = flags.GetBool("dry-run"); err != nil {
			return err
		}
	}
	if flags.Changed("force") {
		if c.Force, err = flags.GetBool("force"); err != nil {
			return err
		}
	}
	return nil
}

func runScaffold(ctx context.Context, cfg *ScaffoldConfig) error {
	log := cfg.logger()

	g, err := guide.Build(ctx, cfg.Input, cfg.guideOptions(log)...)
	if err != nil {
		return friendlyError(err)
	}

	opts := emitter.Options{Name: cfg.Name, Force: cfg.Force, DryRun: cfg.DryRun}
	outDir := cfg.Out
	if outDir == "" {
		outDir = emitter.ProjectName(g, opts)
	}
	opts.OutDir = outDir

	// Absolute only for display; emitters handle creation and writes.
	absOut := outDir
	if ap, err := filepath.Abs(outDir); err == nil {
		absOut = ap
	}

	res, err := emitters[cfg.Lang](ctx, g, opts)
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	log.WithFields(logrus.Fields{"lang": cfg.Lang, "files": len(res.Planned)}).Debug("emitted project")

	paths := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(cfg, "Planned writes to", absOut, paths)
	} else {
		printPlan(cfg, "Wrote", absOut, paths)
	}
	return nil
}

func printPlan(cfg *ScaffoldConfig, verb, outDir string, relPaths []string) {
	fmt.Fprintf(cfg.out, "%s %s (%d files):\n", verb, outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(cfg.out, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Clearer guidance for common filesystem failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") || strings.Contains(lower, "output path") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}
