package rank

import (
	"regexp"
	"testing"

	"github.com/mark3labs/runway/internal/spec"
)

func get(path string, params ...spec.Parameter) spec.Endpoint {
	return spec.Endpoint{Path: path, Method: spec.GET, Parameters: params}
}

func TestPickBest_HealthBeatsPathParam(t *testing.T) {
	t.Parallel()
	s := &spec.Spec{Endpoints: []spec.Endpoint{
		get("/users/{id}", spec.Parameter{Name: "id", In: spec.InPath, Required: true}),
		get("/health"),
	}}
	best, ok := PickBest(s)
	if !ok || best.Path != "/health" {
		t.Fatalf("expected /health, got %+v", best)
	}
}

func TestPickBest_Empty(t *testing.T) {
	t.Parallel()
	if ep, ok := PickBest(&spec.Spec{Endpoints: []spec.Endpoint{}}); ok || ep != nil {
		t.Fatalf("expected no endpoint, got %+v", ep)
	}
	if _, ok := PickBest(nil); ok {
		t.Fatalf("expected no endpoint for nil spec")
	}
}

func TestPickBest_TieKeepsTraversalOrder(t *testing.T) {
	t.Parallel()
	a, b := get("/cats"), get("/dogs")
	unrelated := spec.Endpoint{Path: "/orders/{id}", Method: spec.DELETE, Parameters: []spec.Parameter{{Name: "id", In: spec.InPath, Required: true}}}

	for _, eps := range [][]spec.Endpoint{
		{a, b, unrelated},
		{unrelated, a, b},
		{a, unrelated, b},
	} {
		best, ok := PickBest(&spec.Spec{Endpoints: eps})
		if !ok || best.Path != "/cats" {
			t.Fatalf("expected first of the tied endpoints, got %+v", best)
		}
	}
	s := &spec.Spec{Endpoints: []spec.Endpoint{b, a}}
	if best, _ := PickBest(s); best.Path != "/dogs" {
		t.Fatalf("expected /dogs when it comes first, got %s", best.Path)
	}
}

func TestScore_Terms(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()
	cases := []struct {
		name string
		ep   spec.Endpoint
		want int
	}{
		// 100 GET + 50 pattern + 20 no body - 2 segment + 10 collection
		{"health", get("/health"), 178},
		// pattern index 1
		{"ping", get("/ping"), 177},
		// 100 + (50-9) + 20 - 4
		{"versioned health", get("/v2/health"), 157},
		// 100 + 20 - 4 - 10 - 15 + 5
		{"path param", spec.Endpoint{Path: "/users/{id}", Method: spec.GET, Summary: "Get user",
			Parameters: []spec.Parameter{{Name: "id", In: spec.InPath, Required: true}}}, 96},
		// 0 + 0 - 2 + 10 (request body present)
		{"post with body", spec.Endpoint{Path: "/users", Method: spec.POST, RequestBody: &spec.RequestBody{}}, 8},
		// optional query param has no penalty; two segments, no collection bonus
		{"optional query", get("/a/b", spec.Parameter{Name: "q", In: spec.InQuery}), 116},
		{"case insensitive", get("/HEALTH"), 178},
	}
	for _, tc := range cases {
		if got := p.Score(tc.ep); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestScore_OnlyFirstPatternCounts(t *testing.T) {
	t.Parallel()
	p := Policy{
		Patterns: []Pattern{
			{Name: "a", Re: regexp.MustCompile(`^/x$`)},
			{Name: "b", Re: regexp.MustCompile(`^/x$`)},
		},
		Weights: Weights{PatternBase: 50},
	}
	if got := p.Score(get("/x")); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestRank_StableDescending(t *testing.T) {
	t.Parallel()
	s := &spec.Spec{Endpoints: []spec.Endpoint{
		{Path: "/items", Method: spec.POST, RequestBody: &spec.RequestBody{}},
		get("/cats"),
		get("/dogs"),
		get("/health"),
	}}
	ranked := Rank(s)
	want := []string{"GET /health", "GET /cats", "GET /dogs", "POST /items"}
	for i, id := range want {
		if ranked[i].Endpoint.ID() != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, ranked[i].Endpoint.ID())
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestAlternatives(t *testing.T) {
	t.Parallel()
	s := &spec.Spec{Endpoints: []spec.Endpoint{
		get("/a"),
		{Path: "/a", Method: spec.POST},
		get("/b"),
		get("/c"),
		get("/d"),
	}}
	alts := Alternatives(s, get("/a"), 2)
	if len(alts) != 2 || alts[0].ID() != "POST /a" || alts[1].ID() != "GET /b" {
		t.Fatalf("unexpected alternatives %+v", alts)
	}
	if all := Alternatives(s, get("/a"), -1); len(all) != 4 {
		t.Fatalf("expected all other endpoints, got %d", len(all))
	}
	if none := Alternatives(s, get("/a"), 0); len(none) != 0 {
		t.Fatalf("expected no alternatives for limit 0, got %d", len(none))
	}
}
