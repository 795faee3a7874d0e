// Package rank scores endpoints by how easy they are to try first and
// picks the best quick-start candidate.
package rank

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/runway/internal/spec"
)

// Pattern is one entry of the ordered operational path list. Earlier
// entries earn a larger bonus.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// Weights holds the additive terms of the scoring function.
type Weights struct {
	GET              int
	PatternBase      int // bonus for the first matching pattern is PatternBase - index
	RequiredParam    int
	NoRequestBody    int
	PathSegment      int
	PathParam        int
	Summary          int
	PluralCollection int
}

// Policy is the complete, tunable scoring configuration.
type Policy struct {
	Patterns   []Pattern
	Weights    Weights
	Collection *regexp.Regexp
}

var defaultPatterns = []string{
	`^/health$`,
	`^/ping$`,
	`^/status$`,
	`^/me$`,
	`^/user$`,
	`^/users/me$`,
	`^/api/health$`,
	`^/api/ping$`,
	`^/api/status$`,
	`^/v\d+/health$`,
	`^/v\d+/me$`,
}

// DefaultPolicy returns the quick-win heuristic.
func DefaultPolicy() Policy {
	p := Policy{
		Weights: Weights{
			GET:              100,
			PatternBase:      50,
			RequiredParam:    -10,
			NoRequestBody:    20,
			PathSegment:      -2,
			PathParam:        -15,
			Summary:          5,
			PluralCollection: 10,
		},
		Collection: regexp.MustCompile(`(?i)^/[a-z]+s?$`),
	}
	for _, expr := range defaultPatterns {
		p.Patterns = append(p.Patterns, Pattern{Name: expr, Re: regexp.MustCompile("(?i)" + expr)})
	}
	return p
}

// Score evaluates one endpoint. Only the first matching pattern counts.
func (p Policy) Score(ep spec.Endpoint) int {
	w := p.Weights
	score := 0
	if ep.Method == spec.GET {
		score += w.GET
	}
	for i, pat := range p.Patterns {
		if pat.Re != nil && pat.Re.MatchString(ep.Path) {
			score += w.PatternBase - i
			break
		}
	}
	for _, prm := range ep.Parameters {
		if prm.Required {
			score += w.RequiredParam
		}
		if prm.In == spec.InPath {
			score += w.PathParam
		}
	}
	if ep.RequestBody == nil {
		score += w.NoRequestBody
	}
	score += w.PathSegment * segments(ep.Path)
	if ep.Summary != "" {
		score += w.Summary
	}
	if p.Collection != nil && p.Collection.MatchString(ep.Path) {
		score += w.PluralCollection
	}
	return score
}

func segments(path string) int {
	n := 0
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			n++
		}
	}
	return n
}

// Scored pairs an endpoint with its score.
type Scored struct {
	Endpoint spec.Endpoint
	Score    int
}

// Rank returns every endpoint ordered by descending score. Equal scores
// keep traversal order.
func (p Policy) Rank(s *spec.Spec) []Scored {
	if s == nil {
		return nil
	}
	out := make([]Scored, len(s.Endpoints))
	for i, ep := range s.Endpoints {
		out[i] = Scored{Endpoint: ep, Score: p.Score(ep)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// PickBest returns the highest scoring endpoint under p.
func (p Policy) PickBest(s *spec.Spec) (*spec.Endpoint, bool) {
	if s == nil || len(s.Endpoints) == 0 {
		return nil, false
	}
	best, bestScore := 0, p.Score(s.Endpoints[0])
	for i := 1; i < len(s.Endpoints); i++ {
		if sc := p.Score(s.Endpoints[i]); sc > bestScore {
			best, bestScore = i, sc
		}
	}
	ep := s.Endpoints[best]
	return &ep, true
}

// Rank orders endpoints with the default policy.
func Rank(s *spec.Spec) []Scored { return DefaultPolicy().Rank(s) }

// PickBest selects the quick-start endpoint with the default policy. It
// reports false only when the spec has no endpoints.
func PickBest(s *spec.Spec) (*spec.Endpoint, bool) { return DefaultPolicy().PickBest(s) }

// Alternatives lists up to limit endpoints other than selected, in
// traversal order. A negative limit means no limit.
func Alternatives(s *spec.Spec, selected spec.Endpoint, limit int) []spec.Endpoint {
	out := []spec.Endpoint{}
	if s == nil || limit == 0 {
		return out
	}
	for _, ep := range s.Endpoints {
		if ep.Same(selected) {
			continue
		}
		out = append(out, ep)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
