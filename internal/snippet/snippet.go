// Package snippet renders ready-to-run requests for an endpoint in three
// calling styles: curl, JavaScript fetch and Python requests.
package snippet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/runway/internal/auth"
	"github.com/mark3labs/runway/internal/spec"
)

type Format string

const (
	Curl   Format = "curl"
	Fetch  Format = "fetch"
	Python Format = "python"
)

// Formats lists every supported format in output order.
var Formats = []Format{Curl, Fetch, Python}

// Language returns the code fence tag for the format.
func (f Format) Language() string {
	switch f {
	case Curl:
		return "bash"
	case Fetch:
		return "javascript"
	case Python:
		return "python"
	}
	return ""
}

// ErrUnknownFormat is returned for a format outside Formats.
var ErrUnknownFormat = errors.New("snippet: unknown format")

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "curl", "bash", "sh":
		return Curl, nil
	case "fetch", "js", "javascript":
		return Fetch, nil
	case "python", "py", "requests":
		return Python, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

type Snippet struct {
	Format   Format `json:"format"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Generate renders the endpoint in every format. plan may be nil when the
// endpoint needs no authentication.
func Generate(ep *spec.Endpoint, baseURL string, plan *auth.Plan) []Snippet {
	out := make([]Snippet, 0, len(Formats))
	for _, f := range Formats {
		s, _ := GenerateFormat(f, ep, baseURL, plan)
		out = append(out, s)
	}
	return out
}

// GenerateFormat renders a single format.
func GenerateFormat(f Format, ep *spec.Endpoint, baseURL string, plan *auth.Plan) (Snippet, error) {
	if ep == nil {
		return Snippet{}, errors.New("snippet: nil endpoint")
	}
	r := newRequest(ep, baseURL, plan)
	var code string
	switch f {
	case Curl:
		code = renderCurl(r)
	case Fetch:
		code = renderFetch(r)
	case Python:
		code = renderPython(r)
	default:
		return Snippet{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return Snippet{Format: f, Code: code, Language: f.Language()}, nil
}

// request is the format-independent view shared by the renderers.
type request struct {
	method   spec.HttpMethod
	url      string
	plan     *auth.Plan
	mutating bool
	body     any
	hasBody  bool
}

func newRequest(ep *spec.Endpoint, baseURL string, plan *auth.Plan) request {
	r := request{
		method:   ep.Method,
		url:      BuildURL(baseURL, ep),
		plan:     plan,
		mutating: ep.Method.Mutating(),
	}
	if r.mutating {
		r.body, r.hasBody = ExampleBody(ep)
	}
	return r
}

// queryAuth reports the query parameter carrying the secret, if any.
func (r request) queryAuth() (string, bool) {
	if r.plan == nil || r.plan.Placement != auth.PlaceQuery {
		return "", false
	}
	return r.plan.Name, true
}

// headerAuth reports whether the secret goes in a header.
func (r request) headerAuth() bool {
	return r.plan.HasHeader() && r.plan.HeaderName() != ""
}

// appendQuery adds name=value to a URL that may already carry a query.
func appendQuery(u, name, value string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + name + "=" + value
}
