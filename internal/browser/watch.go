package browser

import (
	"context"

	"go.uber.org/zap"
)

// RunFunc processes the page currently shown at url
type RunFunc func(ctx context.Context, url string) error

// Watch calls run for every URL received from navigations until ctx is done
// or the channel closes. A failing run is logged and does not stop the loop;
// each navigation gets an independent pass.
func Watch(ctx context.Context, navigations <-chan string, run RunFunc, logger *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping navigation watch")
			return ctx.Err()
		case url, ok := <-navigations:
			if !ok {
				return nil
			}
			if err := run(ctx, url); err != nil {
				logger.Error("failed to process page",
					zap.String("url", url),
					zap.Error(err),
				)
			}
		}
	}
}
