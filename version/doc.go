// Package version reports the build version of the flowforge binary.
//
// Release builds set the version through -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/flowforge/version.Version=1.4.0 \
//	  -X github.com/kbukum/flowforge/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/flowforge
//
// Without them the commit and build time come from the Go build info.
package version
