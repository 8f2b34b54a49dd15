package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWatchRunsEachNavigation(t *testing.T) {
	navigations := make(chan string, 3)
	navigations <- "https://github.com/acme/repo/pulls"
	navigations <- "https://github.com/acme/repo/pulls?page=2"
	navigations <- "https://github.com/acme/repo/issues"
	close(navigations)

	var seen []string
	run := func(_ context.Context, url string) error {
		seen = append(seen, url)
		if len(seen) == 2 {
			return errors.New("page failed")
		}
		return nil
	}

	err := Watch(context.Background(), navigations, run, zap.NewNop())
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"https://github.com/acme/repo/pulls",
		"https://github.com/acme/repo/pulls?page=2",
		"https://github.com/acme/repo/issues",
	}, seen)
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, make(chan string), func(context.Context, string) error { return nil }, zap.NewNop())
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
