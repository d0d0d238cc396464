package installer

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckForAppUpdate compares the running version against the latest
// stable release of the desktop tools repository. It never fails: any
// network or parse problem reports no update available.
func (c *Client) CheckForAppUpdate(currentVersion string) (available bool, latest string, url string) {
	current, err := semver.NewVersion(strings.TrimPrefix(currentVersion, "v"))
	if err != nil {
		return false, "", ""
	}

	releases, err := c.fetchRepoReleases(appRepo)
	if err != nil {
		return false, "", ""
	}

	for _, release := range releases {
		if release.Draft || release.Prerelease {
			continue
		}
		remote, err := semver.NewVersion(strings.TrimPrefix(release.TagName, "v"))
		if err != nil {
			continue
		}
		if remote.GreaterThan(current) {
			return true, release.TagName, release.HTMLURL
		}
		return false, "", ""
	}
	return false, "", ""
}
