// Package prbranches annotates pull request list rows with their head and
// base branches when those differ from the defaults.
package prbranches

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clintrovert/prbranches/internal/feature"
	"github.com/clintrovert/prbranches/internal/github"
	"github.com/clintrovert/prbranches/internal/location"
	"github.com/clintrovert/prbranches/pkg/types"
)

const (
	// ID identifies the feature
	ID = "pr-branches"

	// Description is shown wherever features are listed
	Description = "Some head and base branches are shown on the PR list: " +
		"The base branch is added when it's not the repo's default branch; " +
		"The head branch is added when it's from the same repo or the PR is by the current user."

	// RowSelector finds pull request rows on a list page
	RowSelector = ".js-issue-row"

	// MetaSelector finds a row's metadata region
	MetaSelector = ".text-small.text-gray"
)

// ErrMetaRegionMissing is returned when a row has no metadata region to
// append to, meaning the page markup is not what the feature expects
var ErrMetaRegionMissing = errors.New("row has no metadata region")

// BranchFetcher runs a batched pull request branch query
type BranchFetcher interface {
	PullRequestBranches(ctx context.Context, query string) (map[string]*github.PullRequestBranches, error)
}

// DefaultBranchResolver resolves a repository's default branch name
type DefaultBranchResolver interface {
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
}

// Annotator computes and injects branch annotations
type Annotator struct {
	branches BranchFetcher
	defaults DefaultBranchResolver
	logger   *zap.Logger
}

// NewAnnotator creates a new annotator
func NewAnnotator(branches BranchFetcher, defaults DefaultBranchResolver, logger *zap.Logger) *Annotator {
	return &Annotator{
		branches: branches,
		defaults: defaults,
		logger:   logger,
	}
}

// Feature describes the annotator as a page feature
func (a *Annotator) Feature() feature.Feature {
	return feature.Feature{
		ID:          ID,
		Description: Description,
		Include:     []feature.Predicate{location.IsPRList},
		Load:        feature.OnAjaxedPages,
		Init:        a.Init,
	}
}

// Init annotates every pull request row of page. A page without rows is
// skipped without any request. Rows are processed in document order and a
// row whose annotation is fully suppressed is left untouched.
func (a *Annotator) Init(ctx context.Context, page feature.Page, repo types.Repository) (feature.Outcome, error) {
	rows, err := page.QueryAll(ctx, RowSelector)
	if err != nil {
		return feature.Skipped, fmt.Errorf("failed to find rows: %w", err)
	}
	if len(rows) == 0 {
		return feature.Skipped, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID())
	}

	annotations, err := a.Annotations(ctx, repo, ids)
	if err != nil {
		return feature.Skipped, err
	}

	outcome := feature.Outcome{Applied: true}
	for _, row := range rows {
		annotation, ok := annotations[row.ID()]
		if !ok {
			continue
		}

		meta, err := row.Query(ctx, MetaSelector)
		if err != nil {
			return outcome, fmt.Errorf("failed to find metadata region of %s: %w", row.ID(), err)
		}
		if meta == nil {
			return outcome, fmt.Errorf("%s: %w", row.ID(), ErrMetaRegionMissing)
		}
		if err := meta.AppendHTML(ctx, string(annotation)); err != nil {
			return outcome, fmt.Errorf("failed to append annotation to %s: %w", row.ID(), err)
		}
		outcome.Annotated++
	}

	a.logger.Debug("annotated rows",
		zap.String("repository", repo.String()),
		zap.Int("rows", len(rows)),
		zap.Int("annotated", outcome.Annotated),
	)

	return outcome, nil
}

// Annotations fetches branch data for rowIDs in one query, together with the
// default branch, and returns the rendered annotation of each row that has
// one. Either fetch failing fails the whole call.
func (a *Annotator) Annotations(ctx context.Context, repo types.Repository, rowIDs []string) (map[string]template.HTML, error) {
	if len(rowIDs) == 0 {
		return map[string]template.HTML{}, nil
	}

	var (
		data          map[string]*github.PullRequestBranches
		defaultBranch string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = a.branches.PullRequestBranches(gctx, BuildQuery(repo, rowIDs))
		if err != nil {
			return fmt.Errorf("failed to fetch branches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		defaultBranch, err = a.defaults.DefaultBranch(gctx, repo.Owner, repo.Name)
		if err != nil {
			return fmt.Errorf("failed to resolve default branch: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	annotations := make(map[string]template.HTML, len(rowIDs))
	for _, id := range rowIDs {
		info, ok := data[id]
		if !ok || info == nil {
			return nil, fmt.Errorf("no branch data for %s", id)
		}

		base, head := suppress(Normalize(info, repo), repo, defaultBranch)
		if annotation, ok := RenderAnnotation(base, head); ok {
			annotations[id] = annotation
		}
	}

	return annotations, nil
}

// suppress drops a base equal to the default branch and a head owned by
// someone other than the repository owner
func suppress(pair Pair, repo types.Repository, defaultBranch string) (base, head *Reference) {
	if pair.Base.Label != defaultBranch {
		base = &pair.Base
	}
	if pair.Head.Owner == repo.Owner {
		head = &pair.Head
	}
	return base, head
}
