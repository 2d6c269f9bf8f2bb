// Package version reports the version of the build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version can be set at build time with something like:
// go build -ldflags "-X github.com/vsariola/sampler/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision the binary was built from, suffixed with
// "-dirty" if the tree had local modifications. Empty outside a VCS checkout.
var Hash = func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return revision(info.Settings)
	}
	return ""
}()

func revision(settings []debug.BuildSetting) string {
	var rev string
	modified := false
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev != "" && modified {
		rev += "-dirty"
	}
	return rev
}

// VersionOrHash returns Version if it was set, the hash otherwise, and "dev"
// if neither is known.
func VersionOrHash() string {
	switch {
	case Version != "":
		return Version
	case Hash != "":
		return Hash
	}
	return "dev"
}

// String describes the build for the version command.
func String(program string) string {
	return fmt.Sprintf("%s %s %s/%s", program, VersionOrHash(), runtime.GOOS, runtime.GOARCH)
}
