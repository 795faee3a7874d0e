package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/runway/internal/rank"
	"github.com/mark3labs/runway/internal/spec"
)

// EndpointsConfig captures the inputs of the endpoints command.
type EndpointsConfig struct {
	CommonConfig
	SourceConfig

	Limit int
	JSON  bool
}

var endpointsRunner = runEndpoints

func newEndpointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints [input]",
		Short: "List every endpoint with its quick-start score",
		Example: strings.TrimSpace(`  runway endpoints spec.yaml
  runway endpoints spec.yaml --include-tags pets --limit 10`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := EndpointsConfig{SourceConfig: defaultSourceConfig()}
			if err := resolveCommon(cmd, &cfg.CommonConfig, cfg.SourceConfig.applyKey); err != nil {
				return err
			}
			if err := cfg.SourceConfig.applyFlags(cmd.Flags(), args); err != nil {
				return err
			}
			var err error
			if cfg.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
				return err
			}
			if cfg.JSON, err = cmd.Flags().GetBool("json"); err != nil {
				return err
			}
			cfg.SourceConfig.normalize()
			if err := cfg.CommonConfig.validate(); err != nil {
				return err
			}
			if err := cfg.SourceConfig.validate("endpoints"); err != nil {
				return err
			}
			return endpointsRunner(cmd.Context(), &cfg)
		},
	}

	flags := cmd.Flags()
	addInputFlags(flags)
	flags.Int("limit", 0, "Show at most this many endpoints (0 for all)")
	flags.Bool("json", false, "Print the ranking as JSON")
	return cmd
}

func runEndpoints(ctx context.Context, cfg *EndpointsConfig) error {
	log := cfg.logger()

	doc, err := spec.Load(ctx, cfg.Input, cfg.specOptions(log)...)
	if err != nil {
		return friendlyError(err)
	}
	s, err := spec.Normalize(doc, cfg.filters()...)
	if err != nil {
		return friendlyError(err)
	}

	scored := rank.Rank(s)
	if cfg.Limit > 0 && len(scored) > cfg.Limit {
		scored = scored[:cfg.Limit]
	}
	p := NewPrinter(cfg.out)
	if cfg.JSON {
		return p.JSON(scored)
	}
	return p.Ranking(scored)
}
