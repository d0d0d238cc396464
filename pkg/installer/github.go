// Package installer fetches Onion OS releases from GitHub, downloads the
// release archives and extracts them onto a prepared SD card.
package installer

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	githubAPIBase  = "https://api.github.com"
	onionRepo      = "OnionUI/Onion"
	appRepo        = "schmurtzm/Onion-Desktop-Tools"
	userAgent      = "onion-desktop-tools/1.0"
	networkTimeout = 30 * time.Second
)

// Asset is a downloadable file attached to a GitHub release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// githubRelease is the subset of the GitHub release object we consume.
type githubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
	Assets      []Asset   `json:"assets"`
}

// Release is one installable Onion OS release with its zip asset resolved.
type Release struct {
	TagName     string    `json:"tagName"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"publishedAt"`
	DownloadURL string    `json:"downloadUrl"`
	Size        int64     `json:"size"`
}

// Catalog groups the fetched releases, newest first within each list.
type Catalog struct {
	Stable []Release `json:"stable"`
	Beta   []Release `json:"beta"`
}

// Client talks to the GitHub API and release download hosts.
type Client struct {
	http    *resty.Client
	apiBase string
}

func NewClient() *Client {
	return &Client{
		http: resty.New().
			SetTimeout(networkTimeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/vnd.github+json"),
		apiBase: githubAPIBase,
	}
}

// FetchReleases queries the Onion OS repository and splits the results
// into stable and beta (prerelease) lists. Releases without a zip asset
// are skipped, as are drafts.
func (c *Client) FetchReleases() (Catalog, error) {
	return c.fetchCatalog(onionRepo)
}

func (c *Client) fetchCatalog(repo string) (Catalog, error) {
	releases, err := c.fetchRepoReleases(repo)
	if err != nil {
		return Catalog{}, err
	}

	var catalog Catalog
	for _, release := range releases {
		if release.Draft {
			continue
		}
		asset := findZipAsset(release.Assets)
		if asset == nil {
			continue
		}
		entry := Release{
			TagName:     release.TagName,
			Name:        release.Name,
			Prerelease:  release.Prerelease,
			PublishedAt: release.PublishedAt,
			DownloadURL: asset.BrowserDownloadURL,
			Size:        asset.Size,
		}
		if entry.Prerelease {
			catalog.Beta = append(catalog.Beta, entry)
		} else {
			catalog.Stable = append(catalog.Stable, entry)
		}
	}
	return catalog, nil
}

func (c *Client) fetchRepoReleases(repo string) ([]githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", c.apiBase, repo)

	var releases []githubRelease
	resp, err := c.http.R().SetResult(&releases).Get(url)
	if err != nil {
		return nil, fmt.Errorf("unable to reach %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("GitHub API returned HTTP %d for %s", resp.StatusCode(), url)
	}
	return releases, nil
}

// findZipAsset returns the first asset whose name ends in .zip, or nil.
func findZipAsset(assets []Asset) *Asset {
	for i := range assets {
		if strings.HasSuffix(strings.ToLower(assets[i].Name), ".zip") {
			return &assets[i]
		}
	}
	return nil
}
