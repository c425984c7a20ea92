package repo

import (
	"fmt"
	"runtime"
)

// Set by -ldflags at build time.
var (
	BuildVersion = "dev"
	BuildBranch  = "main"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
	BuildNet     = ""

	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	GoVersion = runtime.Version()
)
