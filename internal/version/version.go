// Package version tracks calscribe's own version and the minimum
// calendar-backend contract version it requires.
package version

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the calscribe build version, overridden at link time via
// -ldflags "-X github.com/kestrelsched/calscribe/internal/version.Version=...".
var Version = "v0.1.0"

// MinBackendVersion is the oldest calbridge contract version calscribe
// still speaks. The calendar backend is an external collaborator (§6); we
// only gate on it if it chooses to report a version, so an empty string is
// treated as compatible rather than failing closed.
const MinBackendVersion = "v1.0.0"

// CheckBackendVersion rejects a calendar backend whose reported contract
// version predates MinBackendVersion. Mirrors the teacher's
// checkMinimumUpgradeVersion upgrade gate in store/migrator.go, but applied
// to an external HTTP collaborator instead of a local schema version.
func CheckBackendVersion(reported string) error {
	if reported == "" {
		return nil
	}
	v := reported
	if !semver.IsValid(v) {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("calendar backend reported an unparseable version %q", reported)
	}
	if semver.Compare(v, MinBackendVersion) < 0 {
		return fmt.Errorf("calendar backend version %s is older than the minimum supported %s", reported, MinBackendVersion)
	}
	return nil
}
