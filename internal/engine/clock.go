package engine

import (
	"os"
	"strings"
	"time"
)

// localTimezone returns the IANA name of the local zone, falling back to
// UTC when it cannot be determined.
func localTimezone() string {
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return tz
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if i := strings.LastIndex(target, "zoneinfo/"); i >= 0 {
			return target[i+len("zoneinfo/"):]
		}
	}
	if name := time.Local.String(); name != "Local" && name != "" {
		return name
	}
	return "UTC"
}
