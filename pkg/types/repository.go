package types

// Repository identifies a GitHub repository by owner and name
type Repository struct {
	Owner string
	Name  string
}

// String returns the repository in owner/name form
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// PullRequestRow identifies one visible pull request row on a list page.
// ID is the element id attribute, of the form issue_<number>.
type PullRequestRow struct {
	ID     string
	Number int64
}
