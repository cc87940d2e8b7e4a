// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/vanderheijden86/cpick/pkg/version.Version=v1.2.3".
package version

// Version is the current cpick version
var Version = "v0.1.0-dev"
