// Package location derives repository context from a page URL.
package location

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/clintrovert/prbranches/pkg/types"
)

// ErrNotRepository is returned for URLs that do not point into a repository
var ErrNotRepository = errors.New("url does not point into a repository")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidName reports whether s can be an owner or repository name.
// Names are interpolated into queries, so anything else is rejected.
func ValidName(s string) bool {
	return namePattern.MatchString(s) && s != "." && s != ".."
}

// Parse returns the repository a page URL belongs to
func Parse(pageURL string) (types.Repository, error) {
	parts, err := pathParts(pageURL)
	if err != nil {
		return types.Repository{}, err
	}
	if len(parts) < 2 || !ValidName(parts[0]) || !ValidName(parts[1]) {
		return types.Repository{}, ErrNotRepository
	}
	return types.Repository{Owner: parts[0], Name: parts[1]}, nil
}

// RepoPath returns the part of the path after owner/repo, without slashes
func RepoPath(pageURL string) (string, error) {
	parts, err := pathParts(pageURL)
	if err != nil {
		return "", err
	}
	if len(parts) < 2 {
		return "", ErrNotRepository
	}
	return strings.Join(parts[2:], "/"), nil
}

// IsPRList reports whether the URL is a repository's pull request list
func IsPRList(pageURL string) bool {
	if _, err := Parse(pageURL); err != nil {
		return false
	}
	rest, err := RepoPath(pageURL)
	return err == nil && rest == "pulls"
}

func pathParts(pageURL string) ([]string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return nil, ErrNotRepository
	}
	return strings.Split(trimmed, "/"), nil
}
