// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package version carries the node's build identity.
package version

import "fmt"

// Application represents the version of a peer's node software.
type Application struct {
	Name  string
	Major int
	Minor int
	Patch int
}

// String returns the string representation of the version.
func (a *Application) String() string {
	return fmt.Sprintf("%s/%d.%d.%d", a.Name, a.Major, a.Minor, a.Patch)
}

// Before returns true if this version is before the provided version.
func (a *Application) Before(other *Application) bool {
	return a.Compare(other) < 0
}

// Compare returns -1 if a < other, 0 if a == other, 1 if a > other.
func (a *Application) Compare(other *Application) int {
	if a.Major != other.Major {
		if a.Major < other.Major {
			return -1
		}
		return 1
	}
	if a.Minor != other.Minor {
		if a.Minor < other.Minor {
			return -1
		}
		return 1
	}
	if a.Patch != other.Patch {
		if a.Patch < other.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// Compatible returns true if the two versions share a major version.
func (a *Application) Compatible(other *Application) bool {
	return a.Major == other.Major
}

// Current returns the running build's version.
func Current() *Application {
	return &Application{
		Name:  "centichain-node",
		Major: 0,
		Minor: 1,
		Patch: 0,
	}
}
