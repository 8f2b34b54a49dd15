package prbranches

import (
	"github.com/clintrovert/prbranches/internal/github"
	"github.com/clintrovert/prbranches/pkg/types"
)

// Target is where a rendered reference points: Linked or Unknown
type Target interface {
	target()
}

// Linked points at a branch tree or a repository root
type Linked struct {
	URL string
}

// Unknown marks a reference whose repository no longer exists
type Unknown struct{}

func (Linked) target()  {}
func (Unknown) target() {}

// Reference is one side of a pull request as shown on the list page
type Reference struct {
	Owner        string
	Label        string
	BranchExists bool
	Target       Target
}

// Pair holds both sides of a pull request
type Pair struct {
	Base Reference
	Head Reference
}

// Normalize maps fetched branch fields to display references for repo
func Normalize(info *github.PullRequestBranches, repo types.Repository) Pair {
	base := Reference{
		Owner:        repo.Owner,
		Label:        info.BaseRefName,
		BranchExists: info.BaseRef != nil,
		// The base always lives in the current repository, so it stays linkable
		// and is rendered struck through once deleted.
		Target: Linked{URL: "/" + repo.Owner + "/" + repo.Name + "/tree/" + info.BaseRefName},
	}

	head := Reference{
		Label:        info.HeadRefName,
		BranchExists: info.HeadRef != nil,
		Target:       Unknown{},
	}
	if info.HeadOwner != nil {
		head.Owner = info.HeadOwner.Login
		if head.Owner != repo.Owner {
			head.Label = head.Owner + ":" + info.HeadRefName
		}
	}

	if info.HeadRepository != nil {
		if head.BranchExists {
			head.Target = Linked{URL: info.HeadRepository.URL + "/tree/" + info.HeadRefName}
		} else {
			head.Target = Linked{URL: info.HeadRepository.URL}
		}
	}

	return Pair{Base: base, Head: head}
}
