// Package npmemitter writes a Node.js quick-start project around the fetch
// snippet of a guide.
package npmemitter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/runway/internal/emitter"
	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/snippet"
)

type packageJSON struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Private     bool              `json:"private"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type"`
	Scripts     map[string]string `json:"scripts"`
	Engines     map[string]string `json:"engines"`
}

// Emit renders package.json, index.mjs, README.md and .env.example. The
// script relies on the fetch built into Node 18 and has no dependencies.
func Emit(ctx context.Context, g *guide.Guide, opts emitter.Options) (*emitter.Result, error) {
	if err := emitter.Check(ctx, g, opts); err != nil {
		return nil, err
	}
	name := sanitizePackageName(opts.Name)
	if name == "" {
		name = emitter.ProjectName(g, opts)
	}

	code, err := emitter.Code(g, snippet.Fetch)
	if err != nil {
		return nil, err
	}
	pkg, err := json.MarshalIndent(packageJSON{
		Name:        name,
		Version:     "0.1.0",
		Private:     true,
		Description: fmt.Sprintf("Quick start for %s %s", g.Spec.Title, g.Spec.Version),
		Type:        "module",
		Scripts:     map[string]string{"start": "node index.mjs"},
		Engines:     map[string]string{"node": ">=18"},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("npmemitter: marshal package.json: %w", err)
	}
	readme, err := emitter.Readme(g, "npm start")
	if err != nil {
		return nil, err
	}

	files := emitter.Files{
		"package.json": append(pkg, '\n'),
		"index.mjs":    code,
		"README.md":    readme,
		".env.example": emitter.EnvExample(g),
	}
	return emitter.Finish(ctx, name, files, opts)
}

// sanitizePackageName keeps characters npm accepts in an unscoped name.
func sanitizePackageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-.")
}
