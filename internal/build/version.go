// Package build holds version information injected at link time:
//
//	go build -ldflags "-X skribbl/internal/build.Version=v0.3.0 \
//	  -X skribbl/internal/build.Commit=$(git rev-parse --short HEAD) \
//	  -X skribbl/internal/build.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package build

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a one-line version banner.
func String() string {
	return fmt.Sprintf("skribbl %s (%s) built %s %s/%s",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
