package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/internal/config"
	"github.com/clintrovert/prbranches/internal/github"
	"github.com/clintrovert/prbranches/internal/prbranches"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "prbranches",
	Short: "Show head and base branches on pull request lists",
	Long: "prbranches annotates each row of a pull request list page with the branches it merges " +
		"from and into, when those differ from the repository defaults.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setup loads configuration and wires the annotator to the GitHub API
func setup() (config.Config, *prbranches.Annotator, *zap.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GitHubToken == "" {
		logger.Warn("GITHUB_TOKEN is not set; GraphQL requests will be rejected")
	}

	client, err := github.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL, cfg.HTTPTimeout, logger)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("failed to create github client: %w", err)
	}

	return cfg, prbranches.NewAnnotator(client, client, logger), logger, nil
}
