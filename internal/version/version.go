// Package version knows the build version and can check GitHub for a newer
// release.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Current is overridden at build time with -ldflags "-X ...".
var Current = "v0.0.0-dev"

const (
	githubRepo   = "shamspias/loop-studio"
	checkTimeout = 5 * time.Second
)

// releasesURL is a variable so tests can point the check at a local server.
var releasesURL = "https://api.github.com/repos/" + githubRepo + "/releases/latest"

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Latest fetches the newest release tag from GitHub.
func Latest(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release check returned status %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", err
	}
	if rel.Draft || rel.Prerelease || rel.TagName == "" {
		return "", fmt.Errorf("no stable release found")
	}
	return rel.TagName, nil
}

// UpdateAvailable reports whether latest is a newer semantic version than
// current. Malformed versions never report an update.
func UpdateAvailable(current, latest string) bool {
	c := canonical(current)
	l := canonical(latest)
	if !semver.IsValid(c) || !semver.IsValid(l) {
		return false
	}
	return semver.Compare(l, c) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// UpdateHint prints a one-line update notice when a newer release exists.
// Failures are silent: an update hint is never worth breaking a run over.
func UpdateHint(ctx context.Context) {
	latest, err := Latest(ctx)
	if err != nil {
		return
	}
	if UpdateAvailable(Current, latest) {
		fmt.Printf("A newer release is available: %s (running %s)\n", latest, Current)
	}
}
