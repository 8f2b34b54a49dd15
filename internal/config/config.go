package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings. Values come from defaults, then an optional
// YAML file, then the environment (including a .env file in the working
// directory).
type Config struct {
	GitHubToken    string        `yaml:"github_token"`
	GitHubAPIURL   string        `yaml:"github_api_url"`
	GitHubWebURL   string        `yaml:"github_web_url"`
	ListenAddr     string        `yaml:"listen_addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	Headless       bool          `yaml:"headless"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		GitHubWebURL:   "https://github.com",
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"https://github.com"},
		HTTPTimeout:    20 * time.Second,
		Headless:       true,
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.GitHubToken = getEnv("GITHUB_TOKEN", c.GitHubToken)
	c.GitHubAPIURL = getEnv("GITHUB_API_URL", c.GitHubAPIURL)
	c.GitHubWebURL = strings.TrimSuffix(getEnv("GITHUB_WEB_URL", c.GitHubWebURL), "/")
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.Headless = getEnvBool("HEADLESS", c.Headless)

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
