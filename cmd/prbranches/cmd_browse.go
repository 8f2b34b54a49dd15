package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/internal/browser"
	"github.com/clintrovert/prbranches/internal/feature"
)

var (
	browseURL   string
	browseWatch bool
)

func init() {
	browseCmd.Flags().StringVar(&browseURL, "url", "", "pull request list URL to open")
	browseCmd.Flags().BoolVar(&browseWatch, "watch", false, "re-run after every navigation until interrupted")
	browseCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(browseCmd)
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Annotate a live pull request list in Chromium",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, annotator, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		session, err := browser.Launch(cfg.Headless, logger)
		if err != nil {
			return err
		}
		defer session.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f := annotator.Feature()
		run := func(ctx context.Context, url string) error {
			if err := session.WaitForLoad(); err != nil {
				return err
			}
			outcome, err := feature.Run(ctx, f, url, session.Page(), logger)
			if err != nil {
				return err
			}
			logger.Info("processed page",
				zap.String("url", url),
				zap.Int("annotated", outcome.Annotated),
			)
			return nil
		}

		watch := browseWatch && f.Rerun()
		var navigations <-chan string
		if watch {
			navigations = session.Navigations(ctx)
		}

		if err := session.Open(browseURL); err != nil {
			return err
		}
		if !watch {
			return run(ctx, session.URL())
		}

		// Navigations includes the initial load, so Watch handles it as well.
		if err := browser.Watch(ctx, navigations, run, logger); err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch failed: %w", err)
		}
		return nil
	},
}
