package github

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/clintrovert/prbranches/pkg/types"
)

// RepositoryFromWorkdir resolves the GitHub repository a local checkout points
// at, using the first URL of its origin remote
func RepositoryFromWorkdir(path string) (types.Repository, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return types.Repository{}, fmt.Errorf("failed to open repository: %w", err)
	}

	remote, err := r.Remote("origin")
	if err != nil {
		return types.Repository{}, fmt.Errorf("failed to get remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return types.Repository{}, fmt.Errorf("remote origin has no url")
	}

	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner and name from a git remote URL.
// Accepts https://host/owner/repo(.git), ssh://git@host/owner/repo.git and
// the scp-like git@host:owner/repo.git form.
func ParseRemoteURL(remote string) (types.Repository, error) {
	remote = strings.TrimSpace(remote)

	var path string
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return types.Repository{}, fmt.Errorf("failed to parse remote url: %w", err)
		}
		path = u.Path
	} else if idx := strings.Index(remote, ":"); idx != -1 {
		path = remote[idx+1:]
	} else {
		return types.Repository{}, fmt.Errorf("unsupported remote url: %s", remote)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return types.Repository{}, fmt.Errorf("unsupported remote url: %s", remote)
	}

	return types.Repository{Owner: parts[0], Name: parts[1]}, nil
}
