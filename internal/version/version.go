package version

import (
	"fmt"
	"runtime"
)

// VERSION, Commit and Date are set at build time via:
//
//	go build -ldflags "-X ...version.VERSION=0.2.0 -X ...version.Commit=abc123 -X ...version.Date=2026-01-10"
var (
	VERSION = "dev"
	Commit  = "dev"
	Date    = "unknown"
)

// String is the one-line version banner.
func String() string {
	return fmt.Sprintf("ftchub %s (%s, built %s, %s %s/%s)",
		VERSION, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
