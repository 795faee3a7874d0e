// Package auth works out how a caller authenticates against an endpoint:
// which secret to export, where it goes on the request and how to get it.
package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/runway/internal/spec"
)

// Placement says where the credential travels on the request.
type Placement string

const (
	PlaceHeader Placement = "header"
	PlaceQuery  Placement = "query"
	PlaceCookie Placement = "cookie"
	PlaceNone   Placement = "none"
)

// DefaultAPIKeyHeader is used when an apiKey scheme declares no name.
const DefaultAPIKeyHeader = "X-API-Key"

// Plan is the resolved authentication setup for one endpoint. Secrets are
// only ever referenced through EnvVar.
type Plan struct {
	SchemeName string              `json:"schemeName"`
	SchemeType spec.SchemeType     `json:"schemeType"`
	Scheme     spec.SecurityScheme `json:"-"`
	EnvVar     string              `json:"envVar"`
	Placement  Placement           `json:"placement"`
	// Name is the header, query parameter or cookie carrying the secret.
	Name string `json:"name,omitempty"`
	// Prefix precedes the secret, e.g. "Bearer ".
	Prefix       string   `json:"prefix,omitempty"`
	Instructions []string `json:"instructions"`
}

// HasHeader reports whether the secret is sent in an HTTP header.
func (p *Plan) HasHeader() bool {
	return p != nil && (p.Placement == PlaceHeader || p.Placement == PlaceCookie)
}

// HeaderName is the header carrying the secret. Cookie placement uses the
// Cookie header.
func (p *Plan) HeaderName() string {
	if p == nil {
		return ""
	}
	switch p.Placement {
	case PlaceHeader:
		return p.Name
	case PlaceCookie:
		return "Cookie"
	}
	return ""
}

// ValueTemplate renders the credential with ref standing in for the
// secret, e.g. ValueTemplate("$TOKEN") gives "Bearer $TOKEN".
func (p *Plan) ValueTemplate(ref string) string {
	if p == nil {
		return ""
	}
	if p.Placement == PlaceCookie {
		return p.Name + "=" + p.Prefix + ref
	}
	return p.Prefix + ref
}

// ShellValue is the value template using shell variable syntax.
func (p *Plan) ShellValue() string {
	if p == nil {
		return ""
	}
	return p.ValueTemplate("$" + p.EnvVar)
}

// Detect resolves the authentication plan for ep. Endpoint security wins
// over the document default. Only the first scheme of the first
// requirement is surfaced; other schemes of an AND-requirement are kept in
// the model but not planned for.
//
// It reports false when the endpoint needs no authentication or names a
// scheme the document does not define.
func Detect(s *spec.Spec, ep *spec.Endpoint) (*Plan, bool) {
	if s == nil || ep == nil {
		return nil, false
	}
	reqs := ep.Security
	if len(reqs) == 0 {
		reqs = s.DefaultSecurity
	}
	if len(reqs) == 0 {
		return nil, false
	}
	primary, ok := reqs[0].Primary()
	if !ok || primary.Name == "" {
		return nil, false
	}
	scheme, ok := s.SecuritySchemes[primary.Name]
	if !ok || scheme == nil {
		return nil, false
	}
	return Build(primary.Name, scheme), true
}

// Build derives the plan for a named scheme.
func Build(name string, scheme spec.SecurityScheme) *Plan {
	env := EnvVarName(name, scheme)
	p := &Plan{
		SchemeName: name,
		SchemeType: scheme.Type(),
		Scheme:     scheme,
		EnvVar:     env,
		Placement:  PlaceHeader,
		Name:       "Authorization",
	}

	switch v := scheme.(type) {
	case *spec.APIKeyScheme:
		p.Name = v.Name
		if p.Name == "" {
			p.Name = DefaultAPIKeyHeader
		}
		switch v.In {
		case spec.InQuery:
			p.Placement = PlaceQuery
		case spec.InCookie:
			p.Placement = PlaceCookie
		}
		p.Instructions = apiKeyInstructions(env, p.Name, p.Placement)
	case *spec.HTTPScheme:
		switch v.Scheme {
		case "bearer":
			p.Prefix = "Bearer "
			p.Instructions = bearerInstructions(env)
		case "basic":
			p.Prefix = "Basic "
			p.Instructions = basicInstructions(env)
		default:
			p.Instructions = []string{fmt.Sprintf("Set %s with your credentials", env)}
		}
	case *spec.OAuth2Scheme:
		p.Prefix = "Bearer "
		p.Instructions = oauth2Instructions(env, v.Flows)
	case *spec.OpenIDConnectScheme:
		p.Prefix = "Bearer "
		p.Instructions = []string{
			"Obtain a token via OpenID Connect",
			fmt.Sprintf(`export %s="your-access-token"`, env),
		}
	default:
		// *spec.UnknownScheme: nothing can be placed on the request.
		p.Placement = PlaceNone
		p.Name = ""
		p.Instructions = []string{fmt.Sprintf("Configure %s authentication", name)}
	}
	return p
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

// EnvVarName builds the environment variable holding the secret for a
// scheme, e.g. "BearerAuth" over http bearer gives "BEARERAUTH_TOKEN".
func EnvVarName(name string, scheme spec.SecurityScheme) string {
	base := nonAlnum.ReplaceAllString(strings.ToUpper(name), "_")
	switch v := scheme.(type) {
	case *spec.APIKeyScheme:
		return base + "_API_KEY"
	case *spec.HTTPScheme:
		if v.Scheme == "bearer" {
			return base + "_TOKEN"
		}
	case *spec.OAuth2Scheme:
		return base + "_ACCESS_TOKEN"
	}
	return base + "_KEY"
}

func apiKeyInstructions(env, name string, place Placement) []string {
	sent := "Header: " + name
	switch place {
	case PlaceQuery:
		sent = "Query param: " + name
	case PlaceCookie:
		sent = "Cookie: " + name
	}
	return []string{
		"# Get your API key from the provider's dashboard",
		fmt.Sprintf(`export %s="your-api-key-here"`, env),
		"",
		"# The key will be sent as: " + sent,
	}
}

func bearerInstructions(env string) []string {
	return []string{
		"# Get your access token from the provider",
		fmt.Sprintf(`export %s="your-access-token-here"`, env),
		"",
		"# The token will be sent as: Authorization: Bearer <token>",
	}
}

func basicInstructions(env string) []string {
	return []string{
		"# Encode your credentials as base64(username:password)",
		fmt.Sprintf(`export %s=$(echo -n "username:password" | base64)`, env),
		"",
		"# The credentials will be sent as: Authorization: Basic <encoded>",
	}
}

func oauth2Instructions(env string, flows spec.OAuthFlows) []string {
	out := []string{"# OAuth2 authentication required"}
	export := fmt.Sprintf(`export %s="your-access-token-here"`, env)
	switch {
	case flows.ClientCredentials != nil:
		out = append(out,
			"# Token URL: "+flows.ClientCredentials.TokenURL,
			"# Use client credentials flow to obtain an access token",
			"",
			export,
		)
	case flows.AuthorizationCode != nil:
		out = append(out,
			"# Authorization URL: "+flows.AuthorizationCode.AuthorizationURL,
			"# Token URL: "+flows.AuthorizationCode.TokenURL,
			"# Use authorization code flow to obtain an access token",
			"",
			export,
		)
	default:
		out = append(out, "# Obtain an access token via OAuth2", export)
	}
	return out
}
