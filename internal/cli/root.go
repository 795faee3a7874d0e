package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute runs the runway CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runway",
		Short: "Turn an OpenAPI/Swagger document into a quick-start guide",
		Long: "runway reads a Swagger 2.x or OpenAPI 3.x document, picks the endpoint that is " +
			"easiest to try first, works out its authentication and prints ready-to-run " +
			"curl, fetch and Python requests.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	cmd.PersistentFlags().String("log-format", "text", "Log format on stderr (text|json)")

	for _, sub := range []*cobra.Command{
		newGuideCmd(),
		newScaffoldCmd(),
		newEndpointsCmd(),
		newShowCmd(),
		newListCmd(),
		newDeleteCmd(),
		newInitCmd(),
		newVersionCmd(),
	} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}
	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

// CommonConfig holds settings shared by every command.
type CommonConfig struct {
	ConfigPath string
	Verbose    bool
	LogFormat  string

	out    io.Writer
	errOut io.Writer
}

func (c *CommonConfig) applyKey(key, normalized string, value any) (bool, error) {
	switch normalized {
	case "verbose":
		val, err := valueAsBool(value)
		if err != nil {
			return true, configFieldError(key, err)
		}
		c.Verbose = val
	case "logformat":
		str, err := valueAsString(value)
		if err != nil {
			return true, configFieldError(key, err)
		}
		c.LogFormat = str
	default:
		return false, nil
	}
	return true, nil
}

func (c *CommonConfig) applyFlags(flags *pflag.FlagSet) error {
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		c.Verbose = value
	}
	if flags.Changed("log-format") {
		value, err := flags.GetString("log-format")
		if err != nil {
			return err
		}
		c.LogFormat = value
	}
	return nil
}

func (c *CommonConfig) validate() error {
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	switch c.LogFormat {
	case "", "text", "json":
		return nil
	}
	return newUsageError(fmt.Sprintf("unsupported --log-format %q (allowed: text, json)", c.LogFormat))
}

func (c *CommonConfig) logger() *logrus.Logger {
	return newLogger(c.errOut, c.Verbose, c.LogFormat)
}

func newLogger(w io.Writer, verbose bool, format string) *logrus.Logger {
	logger := logrus.New()
	if w == nil {
		w = io.Discard
	}
	logger.SetOutput(w)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// knownConfigKeys lists every field a config file may hold. Commands ignore
// fields that belong to other commands.
var knownConfigKeys = map[string]bool{
	"input": true, "endpoint": true, "server": true, "baseurl": true,
	"formats": true, "includetags": true, "excludetags": true, "paths": true,
	"alternatives": true, "timeout": true,
	"export": true, "save": true, "storedir": true, "json": true,
	"lang": true, "out": true, "name": true, "dryrun": true, "force": true,
	"verbose": true, "logformat": true,
}

type keyApplier func(key, normalized string, value any) (bool, error)

// resolveCommon reads the config file named by --config into the given
// appliers, then applies the shared flags.
func resolveCommon(cmd *cobra.Command, common *CommonConfig, appliers ...keyApplier) error {
	common.out = cmd.OutOrStdout()
	common.errOut = cmd.ErrOrStderr()
	common.LogFormat = "text"

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		common.ConfigPath = configPath
		if err := applyConfigFile(configPath, append([]keyApplier{common.applyKey}, appliers...)...); err != nil {
			return err
		}
	}
	return common.applyFlags(cmd.Flags())
}

func applyConfigFile(path string, appliers ...keyApplier) error {
	raw, err := readConfigFile(path)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		normalized := normalizeKey(key)
		handled := false
		for _, apply := range appliers {
			ok, err := apply(key, normalized, raw[key])
			if err != nil {
				return err
			}
			if ok {
				handled = true
				break
			}
		}
		if !handled && !knownConfigKeys[normalized] {
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}
	return nil
}
