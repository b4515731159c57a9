// Package version holds the build-time version string, overridable via
// -ldflags the way the rest of the corpus stamps its binaries.
package version

// Version is set via -ldflags "-X github.com/djmitche/dsr/pkg/version.Version=..."
// at build time. The teacher's pkg/version additionally checks a hosted
// channel/upgrade-notification endpoint; that has no analogue in this spec
// (no persistence, no hosted service - spec.md §1) so only the version
// string itself is carried over here.
var Version = "undefined"
