package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/runway/internal/guide"
)

// GuideConfig captures all inputs that influence the guide command after
// merging defaults, config file values, and CLI overrides.
type GuideConfig struct {
	CommonConfig
	SourceConfig

	Export   string
	Save     bool
	StoreDir string
	JSON     bool
}

var guideRunner = runGuide

func newGuideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guide [input]",
		Short: "Print a quick-start guide for an OpenAPI/Swagger document",
		Long: "Load a Swagger/OpenAPI document, pick the endpoint that is easiest to try first, " +
			"resolve its authentication and print curl, fetch and Python snippets. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  runway guide ./openapi.yaml
  runway guide https://petstore3.swagger.io/api/v3/openapi.json --formats curl
  runway guide spec.yaml --endpoint "POST /pets" --export QUICKSTART.md --save`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGuideConfig(cmd, args)
			if err != nil {
				return err
			}
			return guideRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	addInputFlags(flags)
	addSelectionFlags(flags)
	flags.String("export", "", "Also write the guide as Markdown to this file")
	flags.Bool("save", false, "Save the guide to the local store so it can be reopened with the show command")
	flags.String("store-dir", "", "Directory of the guide store (defaults to $"+guide.StoreDirEnv+" or the user config dir)")
	flags.Bool("json", false, "Print the guide as JSON")

	return cmd
}

func resolveGuideConfig(cmd *cobra.Command, args []string) (*GuideConfig, error) {
	cfg := GuideConfig{SourceConfig: defaultSourceConfig()}
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
	cfg.Export = strings.TrimSpace(cfg.Export)
	cfg.StoreDir = strings.TrimSpace(cfg.StoreDir)
	if err := cfg.CommonConfig.validate(); err != nil {
		return nil, err
	}
	if err := cfg.SourceConfig.validate("guide"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *GuideConfig) applyKey(key, normalized string, value any) (bool, error) {
	var err error
	switch normalized {
	case "export":
		c.Export, err = valueAsString(value)
	case "save":
		c.Save, err = valueAsBool(value)
	case "storedir":
		c.StoreDir, err = valueAsString(value)
	case "json":
		c.JSON, err = valueAsBool(value)
	default:
		return false, nil
	}
	if err != nil {
		return true, configFieldError(key, err)
	}
	return true, nil
}

func (c *GuideConfig) applyFlags(flags *pflag.FlagSet) error {
	var err error
	if flags.Changed("export") {
		if c.Export, err = flags.GetString("export"); err != nil {
			return err
		}
	}
	if flags.Changed("save") {
		if c.Save, err = flags.GetBool("save"); err != nil {
			return err
		}
	}
	if flags.Changed("store-dir") {
		if c.StoreDir, err = flags.GetString("store-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("json") {
		if c.JSON, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	return nil
}

func runGuide(ctx context.Context, cfg *GuideConfig) error {
	log := cfg.logger()

	g, err := guide.Build(ctx, cfg.Input, cfg.guideOptions(log)...)
	if err != nil {
		return friendlyError(err)
	}
	if err := printGuide(NewPrinter(cfg.out), g, cfg.JSON); err != nil {
		return err
	}

	if cfg.Export != "" {
		if err := exportMarkdown(g, cfg.Export); err != nil {
			return err
		}
		log.WithField("path", cfg.Export).Info("exported guide")
	}
	if cfg.Save {
		store, err := openStore(cfg.StoreDir)
		if err != nil {
			return err
		}
		rec, err := store.Save(g)
		if err != nil {
			return fmt.Errorf("save guide: %w", err)
		}
		log.WithField("slug", rec.Slug).Infof("saved guide, view it again with `runway show %s`", rec.Slug)
	}
	return nil
}

func printGuide(p *Printer, g *guide.Guide, asJSON bool) error {
	if asJSON {
		return p.JSON(g)
	}
	return p.Guide(g)
}

func exportMarkdown(g *guide.Guide, path string) error {
	md, err := guide.Markdown(g)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("export: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("export: cannot create parent directory: %v", err))
	}
	if err := os.WriteFile(abs, []byte(md), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("export: cannot write %s: %v", abs, err))
	}
	return nil
}

func openStore(dir string) (*guide.FileStore, error) {
	if dir == "" {
		var err error
		if dir, err = guide.DefaultStoreDir(); err != nil {
			return nil, err
		}
	}
	store, err := guide.NewFileStore(dir)
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("store: %v", err))
	}
	return store, nil
}
