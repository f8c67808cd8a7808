// Package version holds the build version, set at link time:
//
//	go build -ldflags "-X github.com/medportal/medassist/internal/version.Version=v1.2.3"
package version

// Version is the medassist release version.
var Version = "dev"
