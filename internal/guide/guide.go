// Package guide runs the quick-start pipeline: load and normalize a
// document, pick the endpoint to showcase, resolve its authentication and
// render request snippets.
package guide

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mark3labs/runway/internal/auth"
	"github.com/mark3labs/runway/internal/rank"
	"github.com/mark3labs/runway/internal/snippet"
	"github.com/mark3labs/runway/internal/spec"
)

var (
	// ErrNoEndpoints halts the pipeline before auth and snippets.
	ErrNoEndpoints = errors.New("spec has no usable endpoints")
	// ErrEndpointNotFound is returned when a requested endpoint is absent.
	ErrEndpointNotFound = errors.New("endpoint not found")
)

// DefaultAlternatives is how many other endpoints a guide lists.
const DefaultAlternatives = 5

// Guide is the output of one pipeline run.
type Guide struct {
	Source       string            `json:"source"`
	Spec         *spec.Spec        `json:"spec"`
	BaseURL      string            `json:"baseUrl"`
	Endpoint     spec.Endpoint     `json:"endpoint"`
	Auth         *auth.Plan        `json:"auth,omitempty"`
	Snippets     []snippet.Snippet `json:"snippets"`
	Alternatives []spec.Endpoint   `json:"alternatives"`
	Warnings     []string          `json:"warnings,omitempty"`

	formats  []snippet.Format
	altLimit int
}

type config struct {
	log        logrus.FieldLogger
	specOpts   []spec.Option
	buildOpts  []spec.BuildOption
	altLimit   int
	method     spec.HttpMethod
	path       string
	server     int
	baseURL    string
	formats    []snippet.Format
	hasFormats bool
}

// Option customizes Build and FromSpec.
type Option func(*config)

func WithLogger(l logrus.FieldLogger) Option { return func(c *config) { c.log = l } }

// WithSpecOptions forwards loader options such as timeouts.
func WithSpecOptions(opts ...spec.Option) Option {
	return func(c *config) { c.specOpts = append(c.specOpts, opts...) }
}

// WithFilters narrows the endpoints considered.
func WithFilters(opts ...spec.BuildOption) Option {
	return func(c *config) { c.buildOpts = append(c.buildOpts, opts...) }
}

// WithAlternatives sets how many alternative endpoints are listed.
func WithAlternatives(n int) Option { return func(c *config) { c.altLimit = n } }

// WithEndpoint skips ranking and uses the given endpoint.
func WithEndpoint(method spec.HttpMethod, path string) Option {
	return func(c *config) { c.method, c.path = method, path }
}

// WithServer selects a declared server by index.
func WithServer(index int) Option { return func(c *config) { c.server = index } }

// WithBaseURL overrides the server URL used in snippets.
func WithBaseURL(u string) Option { return func(c *config) { c.baseURL = strings.TrimSpace(u) } }

// WithFormats restricts the snippet formats, in the given order.
func WithFormats(formats ...snippet.Format) Option {
	return func(c *config) { c.formats, c.hasFormats = formats, true }
}

func newConfig(opts []Option) *config {
	c := &config{altLimit: DefaultAlternatives}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}
	if !c.hasFormats || len(c.formats) == 0 {
		c.formats = snippet.Formats
	}
	return c
}

// Build loads input and produces a guide. It returns ErrNoEndpoints when
// the document defines no usable endpoint.
func Build(ctx context.Context, input string, opts ...Option) (*Guide, error) {
	cfg := newConfig(opts)
	doc, err := spec.Load(ctx, input, append([]spec.Option{spec.WithLogger(cfg.log)}, cfg.specOpts...)...)
	if err != nil {
		return nil, err
	}
	s, err := spec.Normalize(doc, cfg.buildOpts...)
	if err != nil {
		return nil, err
	}
	cfg.log.WithFields(logrus.Fields{
		"title":     s.Title,
		"endpoints": len(s.Endpoints),
		"schemes":   len(s.SecuritySchemes),
	}).Debug("normalized document")

	g, err := fromSpec(s, cfg)
	if err != nil {
		return nil, err
	}
	g.Source = doc.Location
	g.Warnings = append([]string(nil), doc.Warnings...)
	return g, nil
}

// FromSpec runs the pipeline on an already normalized spec.
func FromSpec(s *spec.Spec, opts ...Option) (*Guide, error) {
	return fromSpec(s, newConfig(opts))
}

func fromSpec(s *spec.Spec, cfg *config) (*Guide, error) {
	if s == nil {
		return nil, errors.New("guide: nil spec")
	}
	var ep *spec.Endpoint
	if cfg.path != "" {
		found, ok := s.Find(cfg.method, cfg.path)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrEndpointNotFound, cfg.method, cfg.path)
		}
		ep = found
	} else {
		best, ok := rank.PickBest(s)
		if !ok {
			return nil, ErrNoEndpoints
		}
		ep = best
	}

	base := cfg.baseURL
	if base == "" {
		switch {
		case cfg.server == 0:
			base = s.BaseURL()
		case cfg.server < 0 || cfg.server >= len(s.Servers):
			return nil, fmt.Errorf("guide: server index %d out of range (%d servers)", cfg.server, len(s.Servers))
		default:
			base = s.Servers[cfg.server].URL
		}
	}

	g := &Guide{Spec: s, BaseURL: base, formats: cfg.formats, altLimit: cfg.altLimit}
	g.assemble(*ep)
	cfg.log.WithFields(logrus.Fields{
		"endpoint": ep.ID(),
		"auth":     g.authName(),
	}).Debug("built guide")
	return g, nil
}

// Rebuild re-runs auth resolution and snippet generation for a different
// endpoint of the same spec. g is left unchanged.
func Rebuild(g *Guide, method spec.HttpMethod, path string) (*Guide, error) {
	if g == nil || g.Spec == nil {
		return nil, errors.New("guide: nil guide")
	}
	ep, ok := g.Spec.Find(method, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrEndpointNotFound, method, path)
	}
	next := &Guide{
		Source:   g.Source,
		Spec:     g.Spec,
		BaseURL:  g.BaseURL,
		Warnings: g.Warnings,
		formats:  g.Formats(),
		altLimit: g.altLimit,
	}
	next.assemble(*ep)
	return next, nil
}

func (g *Guide) assemble(ep spec.Endpoint) {
	g.Endpoint = ep
	g.Auth = nil
	if plan, ok := auth.Detect(g.Spec, &ep); ok {
		g.Auth = plan
	}
	g.Snippets = make([]snippet.Snippet, 0, len(g.formats))
	for _, f := range g.formats {
		s, err := snippet.GenerateFormat(f, &ep, g.BaseURL, g.Auth)
		if err != nil {
			continue
		}
		g.Snippets = append(g.Snippets, s)
	}
	g.Alternatives = rank.Alternatives(g.Spec, ep, g.altLimit)
}

// Formats returns the snippet formats this guide renders.
func (g *Guide) Formats() []snippet.Format {
	if len(g.formats) > 0 {
		return g.formats
	}
	if len(g.Snippets) > 0 {
		out := make([]snippet.Format, len(g.Snippets))
		for i, s := range g.Snippets {
			out[i] = s.Format
		}
		return out
	}
	return snippet.Formats
}

// Snippet returns the rendered snippet for f.
func (g *Guide) Snippet(f snippet.Format) (snippet.Snippet, bool) {
	for _, s := range g.Snippets {
		if s.Format == f {
			return s, true
		}
	}
	return snippet.Snippet{}, false
}

func (g *Guide) authName() string {
	if g.Auth == nil {
		return "none"
	}
	return g.Auth.SchemeName
}

// relink restores state that is not serialized.
func (g *Guide) relink() {
	if g.Auth != nil && g.Spec != nil {
		g.Auth.Scheme = g.Spec.SecuritySchemes[g.Auth.SchemeName]
	}
	g.altLimit = len(g.Alternatives)
}
