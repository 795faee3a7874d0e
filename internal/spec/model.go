package spec

// Normalized model shared by the ranker, the auth resolver and the snippet
// generator. A Spec is built once by Normalize and never mutated afterwards.

type HttpMethod string

const (
	GET    HttpMethod = "GET"
	POST   HttpMethod = "POST"
	PUT    HttpMethod = "PUT"
	PATCH  HttpMethod = "PATCH"
	DELETE HttpMethod = "DELETE"
)

// SupportedMethods is the fixed traversal order used when extracting
// endpoints from a path item. HEAD, OPTIONS and TRACE are not represented.
var SupportedMethods = []HttpMethod{GET, POST, PUT, PATCH, DELETE}

// Mutating reports whether requests with this method usually carry a body.
func (m HttpMethod) Mutating() bool {
	return m == POST || m == PUT || m == PATCH
}

// PlaceholderServerURL is used when a document declares no server at all.
const PlaceholderServerURL = "https://api.example.com"

type Spec struct {
	Title           string                `json:"title"`
	Version         string                `json:"version"`
	Description     string                `json:"description,omitempty"`
	Servers         []Server              `json:"servers"`
	Endpoints       []Endpoint            `json:"endpoints"`
	SecuritySchemes SecuritySchemes       `json:"securitySchemes"`
	DefaultSecurity []SecurityRequirement `json:"defaultSecurity"`
}

// BaseURL returns the first server URL. Servers is never empty after
// normalization, but hand-built specs fall back to the placeholder.
func (s *Spec) BaseURL() string {
	if s == nil || len(s.Servers) == 0 {
		return PlaceholderServerURL
	}
	return s.Servers[0].URL
}

// Find returns the endpoint registered for method and path.
func (s *Spec) Find(method HttpMethod, path string) (*Endpoint, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Endpoints {
		if s.Endpoints[i].Method == method && s.Endpoints[i].Path == path {
			return &s.Endpoints[i], true
		}
	}
	return nil, false
}

type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type Endpoint struct {
	Path        string                  `json:"path"`
	Method      HttpMethod              `json:"method"`
	OperationID string                  `json:"operationId,omitempty"`
	Summary     string                  `json:"summary,omitempty"`
	Description string                  `json:"description,omitempty"`
	Parameters  []Parameter             `json:"parameters"`
	RequestBody *RequestBody            `json:"requestBody,omitempty"`
	Responses   map[string]ResponseInfo `json:"responses"`
	// Security is the endpoint-level requirement list. Empty means the
	// endpoint inherits Spec.DefaultSecurity.
	Security []SecurityRequirement `json:"security"`
	Tags     []string              `json:"tags"`
}

// ID is a stable "METHOD /path" identifier.
func (e Endpoint) ID() string { return string(e.Method) + " " + e.Path }

// Same reports whether both endpoints address the same (path, method) pair.
func (e Endpoint) Same(other Endpoint) bool {
	return e.Method == other.Method && e.Path == other.Path
}

type ParameterLocation string

const (
	InPath   ParameterLocation = "path"
	InQuery  ParameterLocation = "query"
	InHeader ParameterLocation = "header"
	InCookie ParameterLocation = "cookie"
)

type Parameter struct {
	Name        string            `json:"name"`
	In          ParameterLocation `json:"in"`
	Required    bool              `json:"required"`
	Description string            `json:"description,omitempty"`
	Schema      *Schema           `json:"schema,omitempty"`
	Example     any               `json:"example,omitempty"`
}

type RequestBody struct {
	Required    bool                 `json:"required"`
	Description string               `json:"description,omitempty"`
	Content     map[string]MediaInfo `json:"content"`
}

type ResponseInfo struct {
	Description string               `json:"description"`
	Content     map[string]MediaInfo `json:"content,omitempty"`
}

type MediaInfo struct {
	Schema  *Schema `json:"schema,omitempty"`
	Example any     `json:"example,omitempty"`
}

type Schema struct {
	Type       string             `json:"type,omitempty"`
	Format     string             `json:"format,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Enum       []any              `json:"enum,omitempty"`
	Example    any                `json:"example,omitempty"`
	Default    any                `json:"default,omitempty"`
}

// IsRequired reports whether name is listed in the schema's required set.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// SecurityRequirement lists the schemes that must be satisfied together.
// Schemes keep the order in which the document declares them.
type SecurityRequirement []RequiredScheme

type RequiredScheme struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// Primary returns the first scheme of the requirement. Consumers that
// surface a single scheme use it and ignore the remaining AND-combination.
func (r SecurityRequirement) Primary() (RequiredScheme, bool) {
	if len(r) == 0 {
		return RequiredScheme{}, false
	}
	return r[0], true
}
