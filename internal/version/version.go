package version

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the service current released version.
// Override at build time:
//
//	go build -ldflags "-X github.com/hrygo/notescopilot/internal/version.Version=1.1.0"
var Version = "1.0.0"

// DevVersion is reported when running in dev or demo mode.
var DevVersion = Version + "-dev"

// SchemaVersion is the version of the bundled database schema.
// Bump it whenever store/migration/*/LATEST.sql changes.
var SchemaVersion = "1.0.0"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > -1
}

// IsVersionGreaterThan returns true if version is greater than target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > 0
}

// String returns the version string with the short commit hash when known.
func String() string {
	v := Version
	if GitCommit != "" && GitCommit != "unknown" {
		shortCommit := GitCommit
		if len(shortCommit) > 8 {
			shortCommit = shortCommit[:8]
		}
		v = fmt.Sprintf("%s-%s", v, shortCommit)
	}
	return v
}
