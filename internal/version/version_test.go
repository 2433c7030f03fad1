package version

import (
	"strings"
	"testing"
)

func TestStringIncludesBuildInfo(t *testing.T) {
	oldV, oldC := VERSION, Commit
	defer func() { VERSION, Commit = oldV, oldC }()
	VERSION, Commit = "1.2.3", "abc123"

	s := String()
	if !strings.HasPrefix(s, "ftchub 1.2.3 (abc123") {
		t.Fatalf("String() = %q", s)
	}
}
