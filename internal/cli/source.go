package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/snippet"
	"github.com/mark3labs/runway/internal/spec"
	"github.com/mark3labs/runway/internal/version"
)

// SourceConfig selects the document and the endpoint a guide is built for.
type SourceConfig struct {
	Input        string
	Endpoint     string
	Server       int
	BaseURL      string
	Formats      []string
	IncludeTags  []string
	ExcludeTags  []string
	Paths        []string
	Alternatives int
	Timeout      time.Duration

	method  spec.HttpMethod
	path    string
	formats []snippet.Format
}

func defaultSourceConfig() SourceConfig {
	return SourceConfig{Alternatives: guide.DefaultAlternatives, Timeout: spec.DefaultSettings().HTTPTimeout}
}

// addInputFlags registers the flags that locate and filter a document.
func addInputFlags(flags *pflag.FlagSet) {
	flags.String("input", "", "Path, URL or inline text of the Swagger/OpenAPI document")
	flags.StringSlice("include-tags", nil, "Only consider operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Ignore operations with these tags")
	flags.StringSlice("paths", nil, "Only consider paths matching these regular expressions")
	flags.Duration("timeout", 0, "HTTP timeout when fetching a remote document")
}

// addSelectionFlags registers the flags that shape the generated guide.
func addSelectionFlags(flags *pflag.FlagSet) {
	flags.String("endpoint", "", `Endpoint to showcase instead of the best ranked one, e.g. "GET /pets"`)
	flags.Int("server", 0, "Index of the declared server to use")
	flags.String("base-url", "", "Override the base URL used in snippets")
	flags.StringSlice("formats", nil, "Snippet formats to render (curl|fetch|python)")
	flags.Int("alternatives", guide.DefaultAlternatives, "How many other endpoints to suggest (-1 for all)")
}

func (c *SourceConfig) applyKey(key, normalized string, value any) (bool, error) {
	var err error
	switch normalized {
	case "input":
		c.Input, err = valueAsString(value)
	case "endpoint":
		c.Endpoint, err = valueAsString(value)
	case "baseurl":
		c.BaseURL, err = valueAsString(value)
	case "server":
		c.Server, err = valueAsInt(value)
	case "alternatives":
		c.Alternatives, err = valueAsInt(value)
	case "formats":
		c.Formats, err = valueAsStringSlice(value)
	case "includetags":
		c.IncludeTags, err = valueAsStringSlice(value)
	case "excludetags":
		c.ExcludeTags, err = valueAsStringSlice(value)
	case "paths":
		c.Paths, err = valueAsStringSlice(value)
	case "timeout":
		var str string
		if str, err = valueAsString(value); err == nil && str != "" {
			c.Timeout, err = time.ParseDuration(str)
		}
	default:
		return false, nil
	}
	if err != nil {
		return true, configFieldError(key, err)
	}
	return true, nil
}

func (c *SourceConfig) applyFlags(flags *pflag.FlagSet, args []string) error {
	if len(args) > 0 {
		c.Input = args[0]
	}
	var err error
	if flags.Changed("input") {
		if c.Input, err = flags.GetString("input"); err != nil {
			return err
		}
	}
	if flags.Changed("endpoint") {
		if c.Endpoint, err = flags.GetString("endpoint"); err != nil {
			return err
		}
	}
	if flags.Changed("base-url") {
		if c.BaseURL, err = flags.GetString("base-url"); err != nil {
			return err
		}
	}
	if flags.Changed("server") {
		if c.Server, err = flags.GetInt("server"); err != nil {
			return err
		}
	}
	if flags.Changed("alternatives") {
		if c.Alternatives, err = flags.GetInt("alternatives"); err != nil {
			return err
		}
	}
	if flags.Changed("formats") {
		if c.Formats, err = flags.GetStringSlice("formats"); err != nil {
			return err
		}
	}
	if flags.Changed("include-tags") {
		if c.IncludeTags, err = flags.GetStringSlice("include-tags"); err != nil {
			return err
		}
	}
	if flags.Changed("exclude-tags") {
		if c.ExcludeTags, err = flags.GetStringSlice("exclude-tags"); err != nil {
			return err
		}
	}
	if flags.Changed("paths") {
		if c.Paths, err = flags.GetStringSlice("paths"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if c.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	return nil
}

func (c *SourceConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Formats = sanitizeList(c.Formats)
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.Paths = sanitizeList(c.Paths)
}

func (c *SourceConfig) validate(command string) error {
	if c.Input == "" {
		return newUsageError(fmt.Sprintf("%s: an input document is required (argument, --input or config file)", command))
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("%s: include/exclude tags overlap: %s", command, strings.Join(overlap, ", ")))
	}
	if c.Endpoint != "" {
		method, path, err := guide.ParseEndpointRef(c.Endpoint)
		if err != nil {
			return newUsageError(fmt.Sprintf("%s: %v", command, err))
		}
		c.method, c.path = method, path
	}
	for _, p := range c.Paths {
		if _, err := regexp.Compile(p); err != nil {
			return newUsageError(fmt.Sprintf("%s: invalid --paths pattern %q: %v", command, p, err))
		}
	}
	if c.Server < 0 {
		return newUsageError(fmt.Sprintf("%s: --server must not be negative", command))
	}
	c.formats = c.formats[:0]
	for _, name := range c.Formats {
		f, err := snippet.ParseFormat(name)
		if err != nil {
			return newUsageError(fmt.Sprintf("%s: %v (allowed: curl, fetch, python)", command, err))
		}
		c.formats = append(c.formats, f)
	}
	return nil
}

func (c *SourceConfig) specOptions(log logrus.FieldLogger) []spec.Option {
	opts := []spec.Option{spec.WithLogger(log), spec.WithUserAgent(version.UserAgent())}
	if c.Timeout > 0 {
		opts = append(opts, spec.WithHTTPTimeout(c.Timeout))
	}
	return opts
}

func (c *SourceConfig) filters() []spec.BuildOption {
	return []spec.BuildOption{
		spec.WithIncludeTags(c.IncludeTags),
		spec.WithExcludeTags(c.ExcludeTags),
		spec.WithPathPatterns(c.Paths),
	}
}

func (c *SourceConfig) guideOptions(log logrus.FieldLogger) []guide.Option {
	opts := []guide.Option{
		guide.WithLogger(log),
		guide.WithSpecOptions(c.specOptions(log)...),
		guide.WithFilters(c.filters()...),
		guide.WithAlternatives(c.Alternatives),
		guide.WithServer(c.Server),
	}
	if c.path != "" {
		opts = append(opts, guide.WithEndpoint(c.method, c.path))
	}
	if c.BaseURL != "" {
		opts = append(opts, guide.WithBaseURL(c.BaseURL))
	}
	if len(c.formats) > 0 {
		opts = append(opts, guide.WithFormats(c.formats...))
	}
	return opts
}
