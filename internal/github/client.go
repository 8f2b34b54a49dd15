package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrGraphQL is returned when a GraphQL response carries an errors array
var ErrGraphQL = errors.New("graphql query failed")

// Client wraps the GitHub REST and GraphQL APIs
type Client struct {
	apiClient *github.Client
	logger    *zap.Logger

	mu              sync.RWMutex
	defaultBranches map[string]string
}

// NewClient creates a new GitHub client. An empty apiURL targets api.github.com;
// an empty accessToken sends unauthenticated requests.
func NewClient(accessToken, apiURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	httpClient := &http.Client{}
	if accessToken != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: accessToken},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = timeout

	apiClient := github.NewClient(httpClient)
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		baseURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse api url: %w", err)
		}
		apiClient.BaseURL = baseURL
	}

	return &Client{
		apiClient:       apiClient,
		logger:          logger,
		defaultBranches: make(map[string]string),
	}, nil
}

// DefaultBranch returns the default branch name of a repository.
// Results are cached per repository for the lifetime of the client.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	key := owner + "/" + repo
	if branch, ok := c.cachedDefaultBranch(key); ok {
		return branch, nil
	}

	repository, _, err := c.apiClient.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to get repository: %w", err)
	}

	branch := repository.GetDefaultBranch()
	c.mu.Lock()
	c.defaultBranches[key] = branch
	c.mu.Unlock()

	c.logger.Debug("resolved default branch",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.String("branch", branch),
	)

	return branch, nil
}

func (c *Client) cachedDefaultBranch(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	branch, ok := c.defaultBranches[key]
	return branch, ok
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query runs a GraphQL query and decodes its data field into out
func (c *Client) Query(ctx context.Context, query string, out interface{}) error {
	req, err := c.apiClient.NewRequest(http.MethodPost, c.graphQLPath(), &graphQLRequest{Query: query})
	if err != nil {
		return fmt.Errorf("failed to create graphql request: %w", err)
	}

	var resp graphQLResponse
	if _, err := c.apiClient.Do(ctx, req, &resp); err != nil {
		return fmt.Errorf("failed to run graphql query: %w", err)
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(messages, "; "))
	}

	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}

	return nil
}

// graphQLPath resolves the GraphQL endpoint relative to the REST base URL.
// Enterprise servers serve REST under /api/v3/ and GraphQL at /api/graphql.
func (c *Client) graphQLPath() string {
	if strings.HasSuffix(c.apiClient.BaseURL.Path, "/v3/") {
		return "../graphql"
	}
	return "graphql"
}
