// Package feature describes page features and applies them to pages.
package feature

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/internal/location"
	"github.com/clintrovert/prbranches/pkg/types"
)

// Page is a document features can query and mutate
type Page interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Element is one node of a Page
type Element interface {
	// ID returns the element's id attribute, or "" if it has none
	ID() string
	// Query returns the first descendant matching selector, or nil
	Query(ctx context.Context, selector string) (Element, error)
	// AppendHTML parses fragment and appends it as the element's last children
	AppendHTML(ctx context.Context, fragment string) error
}

// Outcome reports what a feature did on a page
type Outcome struct {
	Applied   bool
	Annotated int
}

// Skipped is the outcome of a feature that found nothing to do
var Skipped = Outcome{}

// Predicate decides whether a feature applies to a page URL
type Predicate func(pageURL string) bool

// Trigger says when a feature runs
type Trigger int

const (
	// OnDocumentLoad runs once per full page load
	OnDocumentLoad Trigger = iota
	// OnAjaxedPages also runs after each in-place navigation
	OnAjaxedPages
)

// InitFunc runs a feature against a page of repo
type InitFunc func(ctx context.Context, page Page, repo types.Repository) (Outcome, error)

// Feature describes one page feature
type Feature struct {
	ID          string
	Description string
	Include     []Predicate
	Load        Trigger
	Init        InitFunc
}

// Applies reports whether every include predicate accepts pageURL
func (f Feature) Applies(pageURL string) bool {
	for _, include := range f.Include {
		if !include(pageURL) {
			return false
		}
	}
	return true
}

// Rerun reports whether the feature runs again after in-place navigation
func (f Feature) Rerun() bool {
	return f.Load == OnAjaxedPages
}

// Run applies f to page if pageURL is included
func Run(ctx context.Context, f Feature, pageURL string, page Page, logger *zap.Logger) (Outcome, error) {
	if !f.Applies(pageURL) {
		logger.Debug("feature not included on page",
			zap.String("feature", f.ID),
			zap.String("url", pageURL),
		)
		return Skipped, nil
	}

	repo, err := location.Parse(pageURL)
	if err != nil {
		return Skipped, fmt.Errorf("failed to resolve repository: %w", err)
	}

	outcome, err := f.Init(ctx, page, repo)
	if err != nil {
		return outcome, fmt.Errorf("feature %s: %w", f.ID, err)
	}

	logger.Info("ran feature",
		zap.String("feature", f.ID),
		zap.String("repository", repo.String()),
		zap.Bool("applied", outcome.Applied),
		zap.Int("annotated", outcome.Annotated),
	)

	return outcome, nil
}
