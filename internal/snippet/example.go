package snippet

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/runway/internal/spec"
)

// BuildURL joins baseURL and the endpoint path, fills path parameters from
// their examples and appends required query parameters. Parameters without
// an example stay as a visible {name} token.
func BuildURL(baseURL string, ep *spec.Endpoint) string {
	u := strings.TrimSuffix(baseURL, "/") + ep.Path
	var query []string
	for _, p := range ep.Parameters {
		switch p.In {
		case spec.InPath:
			if v, ok := paramExample(p); ok {
				u = strings.ReplaceAll(u, "{"+p.Name+"}", url.PathEscape(literal(v)))
			}
		case spec.InQuery:
			if !p.Required {
				continue
			}
			value := "{" + p.Name + "}"
			if v, ok := paramExample(p); ok {
				value = url.QueryEscape(literal(v))
			}
			query = append(query, p.Name+"="+value)
		}
	}
	if len(query) > 0 {
		u += "?" + strings.Join(query, "&")
	}
	return u
}

func paramExample(p spec.Parameter) (any, bool) {
	if p.Example != nil {
		return p.Example, true
	}
	if p.Schema != nil && p.Schema.Example != nil {
		return p.Schema.Example, true
	}
	return nil, false
}

// literal renders a scalar example the way it appears in a URL.
func literal(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// jsonMediaTypes are inspected in order for a request body example.
var jsonMediaTypes = []string{"application/json", "*/*"}

// ExampleBody returns a request body for the endpoint: the media type's
// literal example, else one synthesized from an object schema holding
// only its required properties. It reports false when nothing usable
// exists.
func ExampleBody(ep *spec.Endpoint) (any, bool) {
	if ep == nil || ep.RequestBody == nil {
		return nil, false
	}
	var media spec.MediaInfo
	found := false
	for _, mt := range jsonMediaTypes {
		if m, ok := ep.RequestBody.Content[mt]; ok {
			media, found = m, true
			break
		}
	}
	if !found {
		return nil, false
	}
	if media.Example != nil {
		return media.Example, true
	}
	return exampleFromSchema(media.Schema)
}

func exampleFromSchema(s *spec.Schema) (any, bool) {
	if s == nil {
		return nil, false
	}
	if s.Example != nil {
		return s.Example, true
	}
	if s.Type != "object" || len(s.Properties) == 0 {
		return nil, false
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	out := map[string]any{}
	for _, name := range names {
		if !s.IsRequired(name) {
			continue
		}
		prop := s.Properties[name]
		switch {
		case prop == nil:
			out[name] = nil
		case prop.Example != nil:
			out[name] = prop.Example
		case prop.Default != nil:
			out[name] = prop.Default
		default:
			out[name] = Placeholder(prop)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Placeholder returns a type-driven stand-in value for a schema.
func Placeholder(s *spec.Schema) any {
	switch s.Type {
	case "string":
		switch s.Format {
		case "email":
			return "user@example.com"
		case "date":
			return "2025-01-01"
		case "date-time":
			return "2025-01-01T00:00:00Z"
		case "uri", "url":
			return "https://example.com"
		case "uuid":
			return "550e8400-e29b-41d4-a716-446655440000"
		}
		return "string"
	case "number", "integer":
		return 0
	case "boolean":
		return true
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	}
	return nil
}
