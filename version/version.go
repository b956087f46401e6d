package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X github.com/circuitsable/win2go/version.Version=...".
var (
	Version   = "dev"
	Revision  = "unknown"
	BuildTime = "unknown"
)

// String renders the version block printed by `win2go version`.
func String() string {
	return fmt.Sprintf("Version:    %s\nRevision:   %s\nBuilt:      %s\nGo version: %s\nOS/Arch:    %s/%s\n",
		Version, Revision, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
