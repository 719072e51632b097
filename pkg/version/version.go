// Package version reports build information set through -ldflags
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

var (
	// Version is set at build time from VERSION.txt
	Version = "dev"
	// GitCommit is the commit SHA that was built
	GitCommit = "unknown"
	// BuildTime is the time of the build
	BuildTime = "unknown"
)

// Info represents version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// Get returns the version information of the running binary
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Version: %s, GitCommit: %s, BuildTime: %s, GoVersion: %s",
		i.Version, i.GitCommit, i.BuildTime, i.GoVersion)
}

// JSON returns the indented JSON representation of i
func (i Info) JSON() (string, error) {
	b, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal version info")
	}
	return string(b), nil
}
