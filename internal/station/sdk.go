package station

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// sdkChecker tests the robot's SDK version against a constraint. A nil
// checker accepts everything.
type sdkChecker struct {
	constraint *semver.Constraints
	raw        string
}

func newSDKChecker(constraint string) (*sdkChecker, error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("sdk constraint %q: %w", constraint, err)
	}
	return &sdkChecker{constraint: c, raw: constraint}, nil
}

// check reports whether version ("major.minor") satisfies the constraint.
func (c *sdkChecker) check(version string) (bool, error) {
	if c == nil {
		return true, nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("sdk version %q: %w", version, err)
	}
	return c.constraint.Check(v), nil
}
