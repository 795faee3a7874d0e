// Package curlemitter writes a shell quick-start project around the curl
// snippet of a guide.
package curlemitter

import (
	"context"

	"github.com/mark3labs/runway/internal/emitter"
	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/snippet"
)

const scriptHeader = "#!/usr/bin/env bash\nset -euo pipefail\n\n"

// Emit renders README.md, .env.example and an executable request.sh.
func Emit(ctx context.Context, g *guide.Guide, opts emitter.Options) (*emitter.Result, error) {
	if err := emitter.Check(ctx, g, opts); err != nil {
		return nil, err
	}
	name := emitter.ProjectName(g, opts)

	code, err := emitter.Code(g, snippet.Curl)
	if err != nil {
		return nil, err
	}
	readme, err := emitter.Readme(g, "./request.sh")
	if err != nil {
		return nil, err
	}

	files := emitter.Files{
		"README.md":    readme,
		".env.example": emitter.EnvExample(g),
		"request.sh":   append([]byte(scriptHeader), code...),
	}
	return emitter.Finish(ctx, name, files, opts)
}
