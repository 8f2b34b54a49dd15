package github

import (
	"context"
	"fmt"
)

// RefMarker is non-nil in a response only while the ref still exists
type RefMarker struct {
	ID string `json:"id"`
}

// HeadRepository is the repository a pull request's head branch lives in
type HeadRepository struct {
	URL string `json:"url"`
}

// HeadOwner is the account owning the head repository
type HeadOwner struct {
	Login string `json:"login"`
}

// PullRequestBranches contains the branch fields requested for one pull request.
// HeadRepository is nil when the fork was deleted.
type PullRequestBranches struct {
	BaseRef        *RefMarker      `json:"baseRef"`
	BaseRefName    string          `json:"baseRefName"`
	HeadRef        *RefMarker      `json:"headRef"`
	HeadRefName    string          `json:"headRefName"`
	HeadRepository *HeadRepository `json:"headRepository"`
	HeadOwner      *HeadOwner      `json:"headOwner"`
}

// PullRequestBranches runs a batched branch query and returns the results keyed
// by the alias each pull request was requested under
func (c *Client) PullRequestBranches(ctx context.Context, query string) (map[string]*PullRequestBranches, error) {
	var data struct {
		Repository map[string]*PullRequestBranches `json:"repository"`
	}
	if err := c.Query(ctx, query, &data); err != nil {
		return nil, err
	}
	if data.Repository == nil {
		return nil, fmt.Errorf("failed to fetch pull request branches: repository not found")
	}

	c.logger.Debug("fetched pull request branches")

	return data.Repository, nil
}
