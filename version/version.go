// Package version holds the release version of canunions.
package version

// VERSION is overridden at build time with
//
//	-ldflags "-X github.com/karlding/canunions/version.VERSION=..."
var VERSION = "0.3.0-dev"
