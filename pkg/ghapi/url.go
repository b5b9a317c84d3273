package ghapi

import (
	"fmt"
	"regexp"
	"strings"
)

var repoURLPattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/\s]+)/([^/\s?#]+)`)

// ParseRepoURL extracts owner and repository name from a GitHub URL. Links
// into a repository's sections (issues, pulls, wiki and so on) resolve to
// the same owner/repo pair as the plain repository URL.
func ParseRepoURL(rawURL string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", "", fmt.Errorf("not a valid GitHub repository URL: %s", rawURL)
	}

	owner = m[1]
	repo = strings.TrimSuffix(m[2], ".git")
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("not a valid GitHub repository URL: %s", rawURL)
	}
	return owner, repo, nil
}
