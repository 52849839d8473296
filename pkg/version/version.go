// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/Multi-Agent-LLMs/mallm-sub000/pkg/version.Version=1.0.0"
package version

import (
	"fmt"
	"runtime"
)

// Injected at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"builtAt"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Current returns the metadata of the running binary.
func Current() Build {
	return Build{
		Version:   Version,
		Commit:    GitCommit,
		BuiltAt:   BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders b as a one-line banner.
func (b Build) String() string {
	return fmt.Sprintf("mallm %s (commit: %s, built: %s, %s %s)",
		b.Version, b.Commit, b.BuiltAt, b.GoVersion, b.Platform)
}

// String returns the banner of the running binary.
func String() string {
	return Current().String()
}
