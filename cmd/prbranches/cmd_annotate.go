package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clintrovert/prbranches/internal/dom"
	"github.com/clintrovert/prbranches/internal/feature"
	"github.com/clintrovert/prbranches/internal/github"
)

var (
	annotateURL     string
	annotateRepoDir string
	annotateIn      string
	annotateOut     string
)

func init() {
	annotateCmd.Flags().StringVar(&annotateURL, "url", "", "URL the page was loaded from, e.g. https://github.com/owner/repo/pulls")
	annotateCmd.Flags().StringVar(&annotateRepoDir, "repo-dir", "", "resolve the repository from this checkout's origin remote instead of --url")
	annotateCmd.Flags().StringVar(&annotateIn, "in", "", "input HTML file (default stdin)")
	annotateCmd.Flags().StringVar(&annotateOut, "out", "", "output HTML file (default stdout)")
	rootCmd.AddCommand(annotateCmd)
}

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Annotate a saved pull request list page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, annotator, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		pageURL := annotateURL
		if annotateRepoDir != "" {
			repo, err := github.RepositoryFromWorkdir(annotateRepoDir)
			if err != nil {
				return fmt.Errorf("failed to resolve repository: %w", err)
			}
			pageURL = cfg.GitHubWebURL + "/" + repo.Owner + "/" + repo.Name + "/pulls"
		}
		if pageURL == "" {
			return fmt.Errorf("one of --url or --repo-dir is required")
		}

		var in io.Reader = cmd.InOrStdin()
		if annotateIn != "" {
			f, err := os.Open(annotateIn)
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()
			in = f
		}

		doc, err := dom.Parse(in)
		if err != nil {
			return err
		}

		outcome, err := feature.Run(cmd.Context(), annotator.Feature(), pageURL, doc, logger)
		if err != nil {
			return err
		}
		if !outcome.Applied {
			fmt.Fprintln(cmd.ErrOrStderr(), "no pull request rows found; page left unchanged")
		}

		var out io.Writer = cmd.OutOrStdout()
		if annotateOut != "" {
			f, err := os.Create(annotateOut)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		return doc.Render(out)
	},
}
