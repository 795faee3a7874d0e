package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commitSHA = ""
	buildDate = ""
)

func Version() string {
	v := version
	if commitSHA != "" {
		v += "+" + commitSHA
	}
	if buildDate != "" {
		v += " (" + buildDate + ")"
	}
	return v
}

// UserAgent identifies runway when fetching remote documents.
func UserAgent() string {
	return fmt.Sprintf("runway/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
}
