// Package pyemitter writes a Python quick-start project around the
// requests snippet of a guide.
package pyemitter

import (
	"context"

	"github.com/mark3labs/runway/internal/emitter"
	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/snippet"
)

const requirements = "requests>=2.31\n"

// Emit renders main.py, requirements.txt, README.md and .env.example.
func Emit(ctx context.Context, g *guide.Guide, opts emitter.Options) (*emitter.Result, error) {
	if err := emitter.Check(ctx, g, opts); err != nil {
		return nil, err
	}
	name := emitter.ProjectName(g, opts)

	code, err := emitter.Code(g, snippet.Python)
	if err != nil {
		return nil, err
	}
	readme, err := emitter.Readme(g,
		"python -m venv .venv && . .venv/bin/activate",
		"pip install -r requirements.txt",
		"python main.py",
	)
	if err != nil {
		return nil, err
	}

	files := emitter.Files{
		"main.py":          code,
		"requirements.txt": []byte(requirements),
		"README.md":        readme,
		".env.example":     emitter.EnvExample(g),
	}
	return emitter.Finish(ctx, name, files, opts)
}
