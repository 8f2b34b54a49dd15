package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/pkg/types"
)

type emptyPage struct{}

func (emptyPage) QueryAll(context.Context, string) ([]Element, error) { return nil, nil }

func TestRunSkipsExcludedPages(t *testing.T) {
	called := false
	f := Feature{
		ID:      "test",
		Include: []Predicate{func(string) bool { return false }},
		Init: func(context.Context, Page, types.Repository) (Outcome, error) {
			called = true
			return Outcome{Applied: true}, nil
		},
	}

	outcome, err := Run(context.Background(), f, "https://github.com/acme/repo/pulls", emptyPage{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
	assert.False(t, called)
}

func TestRunPassesRepository(t *testing.T) {
	var got types.Repository
	f := Feature{
		ID: "test",
		Init: func(_ context.Context, _ Page, repo types.Repository) (Outcome, error) {
			got = repo
			return Outcome{Applied: true, Annotated: 2}, nil
		},
	}

	outcome, err := Run(context.Background(), f, "https://github.com/acme/repo/pulls", emptyPage{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Applied: true, Annotated: 2}, outcome)
	assert.Equal(t, types.Repository{Owner: "acme", Name: "repo"}, got)
}

func TestRunWrapsInitError(t *testing.T) {
	boom := errors.New("boom")
	f := Feature{
		ID: "test",
		Init: func(context.Context, Page, types.Repository) (Outcome, error) {
			return Skipped, boom
		},
	}

	_, err := Run(context.Background(), f, "https://github.com/acme/repo/pulls", emptyPage{}, zap.NewNop())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "feature test")
}

func TestRunRejectsNonRepositoryURL(t *testing.T) {
	f := Feature{
		ID: "test",
		Init: func(context.Context, Page, types.Repository) (Outcome, error) {
			return Outcome{Applied: true}, nil
		},
	}

	_, err := Run(context.Background(), f, "https://github.com/", emptyPage{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRerun(t *testing.T) {
	assert.True(t, Feature{Load: OnAjaxedPages}.Rerun())
	assert.False(t, Feature{Load: OnDocumentLoad}.Rerun())
}
