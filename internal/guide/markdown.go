package guide

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/mark3labs/runway/internal/spec"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var markdownTmpl = template.Must(template.New("guide.md.tmpl").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/guide.md.tmpl"))

// Markdown renders g as a shareable quick-start document.
func Markdown(g *Guide) (string, error) {
	if g == nil || g.Spec == nil {
		return "", errors.New("guide: nil guide")
	}
	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, g); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

// ParseEndpointRef parses "METHOD /path" as printed by Endpoint.ID.
func ParseEndpointRef(ref string) (spec.HttpMethod, string, error) {
	fields := strings.Fields(ref)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("invalid endpoint %q: want \"METHOD /path\"", ref)
	}
	method := spec.HttpMethod(strings.ToUpper(fields[0]))
	supported := false
	for _, m := range spec.SupportedMethods {
		if m == method {
			supported = true
			break
		}
	}
	if !supported {
		return "", "", fmt.Errorf("invalid endpoint %q: unsupported method %s", ref, fields[0])
	}
	if !strings.HasPrefix(fields[1], "/") {
		return "", "", fmt.Errorf("invalid endpoint %q: path must start with /", ref)
	}
	return method, fields[1], nil
}
