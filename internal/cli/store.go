package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/runway/internal/guide"
)

// StoreConfig captures the inputs shared by the saved-guide commands.
type StoreConfig struct {
	CommonConfig

	StoreDir string
}

func (c *StoreConfig) applyKey(key, normalized string, value any) (bool, error) {
	if normalized != "storedir" {
		return false, nil
	}
	str, err := valueAsString(value)
	if err != nil {
		return true, configFieldError(key, err)
	}
	c.StoreDir = str
	return true, nil
}

func resolveStoreConfig(cmd *cobra.Command) (*StoreConfig, *guide.FileStore, error) {
	var cfg StoreConfig
	if err := resolveCommon(cmd, &cfg.CommonConfig, cfg.applyKey); err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("store-dir") {
		value, err := cmd.Flags().GetString("store-dir")
		if err != nil {
			return nil, nil, err
		}
		cfg.StoreDir = value
	}
	cfg.StoreDir = strings.TrimSpace(cfg.StoreDir)
	if err := cfg.CommonConfig.validate(); err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg.StoreDir)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, store, nil
}

func addStoreFlag(cmd *cobra.Command) {
	cmd.Flags().String("store-dir", "", "Directory of the guide store (defaults to $"+guide.StoreDirEnv+" or the user config dir)")
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print a saved guide, optionally for a different endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := resolveStoreConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			endpoint, _ := flags.GetString("endpoint")
			export, _ := flags.GetString("export")
			asJSON, _ := flags.GetBool("json")

			rec, err := store.Load(strings.TrimSpace(args[0]))
			if err != nil {
				return friendlyError(err)
			}
			g := rec.Guide
			if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
				method, path, err := guide.ParseEndpointRef(endpoint)
				if err != nil {
					return newUsageError(fmt.Sprintf("show: %v", err))
				}
				if g, err = guide.Rebuild(g, method, path); err != nil {
					return friendlyError(err)
				}
			}
			cfg.logger().WithField("views", rec.ViewCount).Debug("loaded saved guide")

			if err := printGuide(NewPrinter(cfg.out), g, asJSON); err != nil {
				return err
			}
			if export = strings.TrimSpace(export); export != "" {
				return exportMarkdown(g, export)
			}
			return nil
		},
	}
	addStoreFlag(cmd)
	cmd.Flags().String("endpoint", "", `Switch to another endpoint of the saved spec, e.g. "GET /pets"`)
	cmd.Flags().String("export", "", "Also write the guide as Markdown to this file")
	cmd.Flags().Bool("json", false, "Print the guide as JSON")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved guides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := resolveStoreConfig(cmd)
			if err != nil {
				return err
			}
			list, err := store.List()
			if err != nil {
				return err
			}
			p := NewPrinter(cfg.out)
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return p.JSON(list)
			}
			return p.Summaries(list)
		},
	}
	addStoreFlag(cmd)
	cmd.Flags().Bool("json", false, "Print the list as JSON")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a saved guide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := resolveStoreConfig(cmd)
			if err != nil {
				return err
			}
			slug := strings.TrimSpace(args[0])
			if err := store.Delete(slug); err != nil {
				return friendlyError(err)
			}
			fmt.Fprintf(cfg.out, "Deleted %s\n", slug)
			return nil
		},
	}
	addStoreFlag(cmd)
	return cmd
}
