package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// MinK3sVersion is the oldest k3s release whose flags the scripts rely on.
const MinK3sVersion = ">= 1.28.0-0"

var k3sConstraint = mustConstraint(MinK3sVersion)

func mustConstraint(c string) *semver.Constraints {
	parsed, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return parsed
}

// checkK3sVersion parses a k3s release tag such as v1.31.4+k3s1.
func checkK3sVersion(v string) error {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid k3s version %q: %w", v, err)
	}
	if !k3sConstraint.Check(parsed) {
		return fmt.Errorf("k3s version %s is not supported (need %s)", v, MinK3sVersion)
	}
	return nil
}
