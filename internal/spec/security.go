package spec

import (
	"encoding/json"
	"fmt"
	"sort"
)

type SchemeType string

const (
	SchemeAPIKey        SchemeType = "apiKey"
	SchemeHTTP          SchemeType = "http"
	SchemeOAuth2        SchemeType = "oauth2"
	SchemeOpenIDConnect SchemeType = "openIdConnect"
)

// SecurityScheme is a closed set of variants: *APIKeyScheme, *HTTPScheme,
// *OAuth2Scheme, *OpenIDConnectScheme and *UnknownScheme. Only this package
// can add variants.
type SecurityScheme interface {
	Type() SchemeType
	Desc() string
	isSecurityScheme()
}

type APIKeyScheme struct {
	Name        string
	In          ParameterLocation
	Description string
}

type HTTPScheme struct {
	// Scheme is the lower-cased HTTP auth scheme, e.g. "bearer" or "basic".
	Scheme       string
	BearerFormat string
	Description  string
}

type OAuth2Scheme struct {
	Flows       OAuthFlows
	Description string
}

type OpenIDConnectScheme struct {
	URL         string
	Description string
}

// UnknownScheme keeps schemes whose type is not one of the four known ones.
type UnknownScheme struct {
	RawType     string
	Description string
}

type OAuthFlows struct {
	Implicit          *OAuthFlow `json:"implicit,omitempty"`
	Password          *OAuthFlow `json:"password,omitempty"`
	ClientCredentials *OAuthFlow `json:"clientCredentials,omitempty"`
	AuthorizationCode *OAuthFlow `json:"authorizationCode,omitempty"`
}

type OAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty"`
	RefreshURL       string            `json:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes,omitempty"`
}

func (*APIKeyScheme) Type() SchemeType        { return SchemeAPIKey }
func (*HTTPScheme) Type() SchemeType          { return SchemeHTTP }
func (*OAuth2Scheme) Type() SchemeType        { return SchemeOAuth2 }
func (*OpenIDConnectScheme) Type() SchemeType { return SchemeOpenIDConnect }
func (s *UnknownScheme) Type() SchemeType     { return SchemeType(s.RawType) }

func (s *APIKeyScheme) Desc() string        { return s.Description }
func (s *HTTPScheme) Desc() string          { return s.Description }
func (s *OAuth2Scheme) Desc() string        { return s.Description }
func (s *OpenIDConnectScheme) Desc() string { return s.Description }
func (s *UnknownScheme) Desc() string       { return s.Description }

func (*APIKeyScheme) isSecurityScheme()        {}
func (*HTTPScheme) isSecurityScheme()          {}
func (*OAuth2Scheme) isSecurityScheme()        {}
func (*OpenIDConnectScheme) isSecurityScheme() {}
func (*UnknownScheme) isSecurityScheme()       {}

// SecuritySchemes maps scheme names to their definitions.
type SecuritySchemes map[string]SecurityScheme

// schemeWire is the flat JSON shape of every variant, matching the
// OpenAPI 3 securityScheme object.
type schemeWire struct {
	Type             string      `json:"type"`
	Description      string      `json:"description,omitempty"`
	Name             string      `json:"name,omitempty"`
	In               string      `json:"in,omitempty"`
	Scheme           string      `json:"scheme,omitempty"`
	BearerFormat     string      `json:"bearerFormat,omitempty"`
	Flows            *OAuthFlows `json:"flows,omitempty"`
	OpenIDConnectURL string      `json:"openIdConnectUrl,omitempty"`
}

func (m SecuritySchemes) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[string]schemeWire, len(m))
	for _, name := range names {
		w, err := toWire(m[name])
		if err != nil {
			return nil, fmt.Errorf("security scheme %q: %w", name, err)
		}
		out[name] = w
	}
	return json.Marshal(out)
}

func (m *SecuritySchemes) UnmarshalJSON(data []byte) error {
	var raw map[string]schemeWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(SecuritySchemes, len(raw))
	for name, w := range raw {
		out[name] = fromWire(w)
	}
	*m = out
	return nil
}

func toWire(s SecurityScheme) (schemeWire, error) {
	switch v := s.(type) {
	case *APIKeyScheme:
		return schemeWire{Type: string(SchemeAPIKey), Description: v.Description, Name: v.Name, In: string(v.In)}, nil
	case *HTTPScheme:
		return schemeWire{Type: string(SchemeHTTP), Description: v.Description, Scheme: v.Scheme, BearerFormat: v.BearerFormat}, nil
	case *OAuth2Scheme:
		flows := v.Flows
		return schemeWire{Type: string(SchemeOAuth2), Description: v.Description, Flows: &flows}, nil
	case *OpenIDConnectScheme:
		return schemeWire{Type: string(SchemeOpenIDConnect), Description: v.Description, OpenIDConnectURL: v.URL}, nil
	case *UnknownScheme:
		return schemeWire{Type: v.RawType, Description: v.Description}, nil
	case nil:
		return schemeWire{}, fmt.Errorf("nil scheme")
	default:
		return schemeWire{}, fmt.Errorf("unsupported scheme variant %T", s)
	}
}

func fromWire(w schemeWire) SecurityScheme {
	switch SchemeType(w.Type) {
	case SchemeAPIKey:
		return &APIKeyScheme{Name: w.Name, In: ParameterLocation(w.In), Description: w.Description}
	case SchemeHTTP:
		return &HTTPScheme{Scheme: w.Scheme, BearerFormat: w.BearerFormat, Description: w.Description}
	case SchemeOAuth2:
		s := &OAuth2Scheme{Description: w.Description}
		if w.Flows != nil {
			s.Flows = *w.Flows
		}
		return s
	case SchemeOpenIDConnect:
		return &OpenIDConnectScheme{URL: w.OpenIDConnectURL, Description: w.Description}
	default:
		return &UnknownScheme{RawType: w.Type, Description: w.Description}
	}
}
