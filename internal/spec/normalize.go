package spec

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildOption narrows the endpoints kept by Normalize.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	pathRes     []*regexp.Regexp
}

// WithIncludeTags keeps only endpoints that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.includeTags == nil {
				c.includeTags = make(map[string]struct{}, len(tags))
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags removes endpoints that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.excludeTags == nil {
				c.excludeTags = make(map[string]struct{}, len(tags))
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only endpoints whose path matches at least one of
// the given regular expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// Normalize converts a loaded document into the version-agnostic Spec.
func Normalize(doc *Document, opts ...BuildOption) (*Spec, error) {
	if doc == nil || doc.OpenAPI == nil {
		return nil, &MalformedSpecError{Code: InputError, Message: "spec: nil document"}
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	t := doc.OpenAPI
	if t.Info == nil {
		return nil, &MalformedSpecError{Code: MissingFieldError, Message: `spec: required field "info" is missing`, Location: doc.Location, JSONPointer: "#/info"}
	}

	s := &Spec{
		Title:           strings.TrimSpace(t.Info.Title),
		Version:         strings.TrimSpace(t.Info.Version),
		Description:     strings.TrimSpace(t.Info.Description),
		Servers:         extractServers(doc),
		SecuritySchemes: extractSecuritySchemes(t),
		DefaultSecurity: toRequirements(t.Security, doc.order.rootSecurity),
		Endpoints:       []Endpoint{},
	}
	if s.Title == "" || s.Version == "" {
		return nil, &MalformedSpecError{Code: MissingFieldError, Message: "spec: info.title and info.version are required", Location: doc.Location, JSONPointer: "#/info"}
	}

	keys := make([]string, 0, len(t.Paths))
	for p := range t.Paths {
		keys = append(keys, p)
	}
	for _, p := range doc.order.orderedPaths(keys) {
		item := t.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}
		for _, m := range SupportedMethods {
			op := operationFor(item, m)
			if op == nil {
				continue
			}
			ep := buildEndpoint(p, m, item, op, doc.order.opSecurity[opKey(m, p)])
			if !cfg.allowTags(ep.Tags) {
				continue
			}
			s.Endpoints = append(s.Endpoints, ep)
		}
	}
	return s, nil
}

func operationFor(item *openapi3.PathItem, m HttpMethod) *openapi3.Operation {
	switch m {
	case GET:
		return item.Get
	case POST:
		return item.Post
	case PUT:
		return item.Put
	case PATCH:
		return item.Patch
	case DELETE:
		return item.Delete
	}
	return nil
}

func buildEndpoint(path string, m HttpMethod, item *openapi3.PathItem, op *openapi3.Operation, secOrder [][]string) Endpoint {
	ep := Endpoint{
		Path:        path,
		Method:      m,
		OperationID: strings.TrimSpace(op.OperationID),
		Summary:     strings.TrimSpace(op.Summary),
		Description: strings.TrimSpace(op.Description),
		Parameters:  mergeParameters(item.Parameters, op.Parameters),
		Responses:   map[string]ResponseInfo{},
		Security:    []SecurityRequirement{},
		Tags:        []string{},
	}
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		rb := op.RequestBody.Value
		ep.RequestBody = &RequestBody{
			Required:    rb.Required,
			Description: strings.TrimSpace(rb.Description),
			Content:     toMediaMap(rb.Content),
		}
	}
	for code, rref := range op.Responses {
		if rref == nil || rref.Value == nil {
			continue
		}
		info := ResponseInfo{Content: toMediaMap(rref.Value.Content)}
		if rref.Value.Description != nil {
			info.Description = strings.TrimSpace(*rref.Value.Description)
		}
		if len(info.Content) == 0 {
			info.Content = nil
		}
		ep.Responses[code] = info
	}
	if op.Security != nil {
		ep.Security = toRequirements(*op.Security, secOrder)
	}
	for _, tag := range op.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			ep.Tags = append(ep.Tags, tag)
		}
	}
	return ep
}

// mergeParameters applies path-level parameters first; an operation-level
// parameter with the same (in, name) replaces it in place.
func mergeParameters(pathLevel, opLevel openapi3.Parameters) []Parameter {
	out := []Parameter{}
	index := map[string]int{}
	add := func(refs openapi3.Parameters) {
		for _, pref := range refs {
			p, ok := toParameter(pref)
			if !ok {
				continue
			}
			key := paramKey(p.In, p.Name)
			if i, exists := index[key]; exists {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	add(pathLevel)
	add(opLevel)
	return out
}

func paramKey(in ParameterLocation, name string) string { return string(in) + ":" + name }

func toParameter(pref *openapi3.ParameterRef) (Parameter, bool) {
	if pref == nil || pref.Value == nil {
		return Parameter{}, false
	}
	p := pref.Value
	out := Parameter{
		Name:        strings.TrimSpace(p.Name),
		In:          ParameterLocation(strings.ToLower(strings.TrimSpace(p.In))),
		Required:    p.Required,
		Description: strings.TrimSpace(p.Description),
		Schema:      toSchema(p.Schema, map[*openapi3.Schema]bool{}),
		Example:     p.Example,
	}
	if out.Example == nil {
		out.Example = firstExample(p.Examples)
	}
	if out.Name == "" {
		return Parameter{}, false
	}
	return out, true
}

func toMediaMap(content openapi3.Content) map[string]MediaInfo {
	out := make(map[string]MediaInfo, len(content))
	for mime, mt := range content {
		if mt == nil {
			continue
		}
		info := MediaInfo{
			Schema:  toSchema(mt.Schema, map[*openapi3.Schema]bool{}),
			Example: mt.Example,
		}
		if info.Example == nil {
			info.Example = firstExample(mt.Examples)
		}
		out[mime] = info
	}
	return out
}

// firstExample picks the first named example deterministically by key.
func firstExample(examples openapi3.Examples) any {
	if len(examples) == 0 {
		return nil
	}
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ref := examples[name]; ref != nil && ref.Value != nil && ref.Value.Value != nil {
			return ref.Value.Value
		}
	}
	return nil
}

// toSchema copies the parts of a dereferenced schema used downstream.
// seen holds the schemas on the current descent so recursive types stop
// after one level.
func toSchema(ref *openapi3.SchemaRef, seen map[*openapi3.Schema]bool) *Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	v := ref.Value
	if seen[v] {
		return &Schema{Type: strings.TrimSpace(v.Type), Format: strings.TrimSpace(v.Format)}
	}
	seen[v] = true
	defer delete(seen, v)

	s := &Schema{
		Type:     strings.TrimSpace(v.Type),
		Format:   strings.TrimSpace(v.Format),
		Required: append([]string(nil), v.Required...),
		Example:  v.Example,
		Default:  v.Default,
	}
	if len(v.Enum) > 0 {
		s.Enum = append([]any(nil), v.Enum...)
	}
	if v.Items != nil {
		s.Items = toSchema(v.Items, seen)
	}
	for name, prop := range v.Properties {
		if ps := toSchema(prop, seen); ps != nil {
			if s.Properties == nil {
				s.Properties = make(map[string]*Schema, len(v.Properties))
			}
			s.Properties[name] = ps
		}
	}
	// allOf members contribute their properties, as Swagger 2.0 models
	// commonly compose objects that way.
	for _, member := range v.AllOf {
		ms := toSchema(member, seen)
		if ms == nil {
			continue
		}
		if s.Type == "" && ms.Type == "object" {
			s.Type = "object"
		}
		for name, prop := range ms.Properties {
			if s.Properties == nil {
				s.Properties = map[string]*Schema{}
			}
			if _, exists := s.Properties[name]; !exists {
				s.Properties[name] = prop
			}
		}
		for _, r := range ms.Required {
			if !s.IsRequired(r) {
				s.Required = append(s.Required, r)
			}
		}
	}
	if s.Type == "" && len(s.Properties) > 0 {
		s.Type = "object"
	}
	return s
}

func extractServers(doc *Document) []Server {
	if doc.Version == 3 {
		var out []Server
		for _, srv := range doc.OpenAPI.Servers {
			if srv == nil || strings.TrimSpace(srv.URL) == "" {
				continue
			}
			out = append(out, Server{URL: srv.URL, Description: strings.TrimSpace(srv.Description)})
		}
		if len(out) > 0 {
			return out
		}
	}
	if o := doc.Swagger; o != nil && o.Host != "" {
		scheme := "https"
		if len(o.Schemes) > 0 {
			scheme = o.Schemes[0]
		}
		return []Server{{URL: fmt.Sprintf("%s://%s%s", scheme, o.Host, o.BasePath)}}
	}
	return []Server{{URL: PlaceholderServerURL}}
}

func extractSecuritySchemes(t *openapi3.T) SecuritySchemes {
	out := SecuritySchemes{}
	if t.Components == nil {
		return out
	}
	for name, ref := range t.Components.SecuritySchemes {
		if ref == nil || ref.Value == nil {
			continue
		}
		out[name] = toSecurityScheme(ref.Value)
	}
	return out
}

func toSecurityScheme(v *openapi3.SecurityScheme) SecurityScheme {
	desc := strings.TrimSpace(v.Description)
	switch SchemeType(v.Type) {
	case SchemeAPIKey:
		return &APIKeyScheme{Name: strings.TrimSpace(v.Name), In: ParameterLocation(strings.ToLower(v.In)), Description: desc}
	case SchemeHTTP:
		return &HTTPScheme{Scheme: strings.ToLower(strings.TrimSpace(v.Scheme)), BearerFormat: v.BearerFormat, Description: desc}
	case SchemeOAuth2:
		s := &OAuth2Scheme{Description: desc}
		if v.Flows != nil {
			s.Flows = OAuthFlows{
				Implicit:          toFlow(v.Flows.Implicit),
				Password:          toFlow(v.Flows.Password),
				ClientCredentials: toFlow(v.Flows.ClientCredentials),
				AuthorizationCode: toFlow(v.Flows.AuthorizationCode),
			}
		}
		return s
	case SchemeOpenIDConnect:
		return &OpenIDConnectScheme{URL: v.OpenIdConnectUrl, Description: desc}
	default:
		return &UnknownScheme{RawType: v.Type, Description: desc}
	}
}

func toFlow(f *openapi3.OAuthFlow) *OAuthFlow {
	if f == nil {
		return nil
	}
	out := &OAuthFlow{AuthorizationURL: f.AuthorizationURL, TokenURL: f.TokenURL, RefreshURL: f.RefreshURL}
	if len(f.Scopes) > 0 {
		out.Scopes = make(map[string]string, len(f.Scopes))
		for k, v := range f.Scopes {
			out.Scopes[k] = v
		}
	}
	return out
}

// toRequirements orders each requirement's schemes by the declaration
// order in hints; names missing from the hint follow sorted.
func toRequirements(reqs openapi3.SecurityRequirements, hints [][]string) []SecurityRequirement {
	out := make([]SecurityRequirement, 0, len(reqs))
	for i, req := range reqs {
		var hint []string
		if i < len(hints) {
			hint = hints[i]
		}
		r := SecurityRequirement{}
		used := map[string]bool{}
		for _, name := range hint {
			if scopes, ok := req[name]; ok && !used[name] {
				r = append(r, RequiredScheme{Name: name, Scopes: copyScopes(scopes)})
				used[name] = true
			}
		}
		var rest []string
		for name := range req {
			if !used[name] {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		for _, name := range rest {
			r = append(r, RequiredScheme{Name: name, Scopes: copyScopes(req[name])})
		}
		out = append(out, r)
	}
	return out
}

func copyScopes(scopes []string) []string {
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out
}

func (c *buildConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *buildConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}
