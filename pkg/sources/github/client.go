// Package github fetches pinned repositories and their READMEs for a GitHub account.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
	"github.com/ekaya-inc/ekaya-ingest/pkg/sources"
)

const (
	// MaxPinnedRepos is the number of pinned repositories requested.
	MaxPinnedRepos = 6
	// MaxTopicsPerRepo is the number of topics requested per repository.
	MaxTopicsPerRepo = 10
)

const pinnedReposQuery = `query PinnedRepositories($login: String!, $first: Int!, $topics: Int!) {
  user(login: $login) {
    pinnedItems(first: $first, types: REPOSITORY) {
      nodes {
        ... on Repository {
          name
          description
          url
          stargazerCount
          forkCount
          primaryLanguage {
            name
            color
          }
          repositoryTopics(first: $topics) {
            nodes {
              topic {
                name
              }
            }
          }
        }
      }
    }
  }
}`

// Repository is one pinned repository. Readme is filled in separately and is
// "" when the fetch failed or the repository has none.
type Repository struct {
	Name            string
	Description     string
	URL             string
	Stars           int
	Forks           int
	PrimaryLanguage string // "" when GitHub detected none
	Topics          []string
	Readme          string
}

// Client fetches GitHub data with the user's bearer credential.
type Client interface {
	// FetchPinnedRepositories returns found=false when the account does not
	// resolve or carries no pinned-item wrapper.
	FetchPinnedRepositories(ctx context.Context, login, token string) (repos []Repository, found bool, err error)
	// FetchReadme returns the decoded README or "" on any failure.
	FetchReadme(ctx context.Context, repoURL, token string) string
}

type client struct {
	graphql    *sources.GraphQLClient
	restURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a GitHub client for the given GraphQL and REST endpoints.
func NewClient(graphqlURL, restURL string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &client{
		graphql:    sources.NewGraphQLClient(graphqlURL, httpClient, timeout, nil),
		restURL:    strings.TrimRight(restURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger.Named("github-client"),
	}
}

var _ Client = (*client)(nil)

type pinnedReposData struct {
	User *struct {
		PinnedItems *struct {
			Nodes []repositoryNode `json:"nodes"`
		} `json:"pinnedItems"`
	} `json:"user"`
}

type repositoryNode struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	URL             string  `json:"url"`
	StargazerCount  int     `json:"stargazerCount"`
	ForkCount       int     `json:"forkCount"`
	PrimaryLanguage *struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"primaryLanguage"`
	RepositoryTopics *struct {
		Nodes []struct {
			Topic struct {
				Name string `json:"name"`
			} `json:"topic"`
		} `json:"nodes"`
	} `json:"repositoryTopics"`
}

func (c *client) FetchPinnedRepositories(ctx context.Context, login, token string) ([]Repository, bool, error) {
	var data pinnedReposData
	gqlErrs, err := c.graphql.Do(ctx, pinnedReposQuery, map[string]any{
		"login":  login,
		"first":  MaxPinnedRepos,
		"topics": MaxTopicsPerRepo,
	}, token, &data)
	if err != nil {
		metrics.SourceFetchFailures.WithLabelValues("github", "pinned_repositories").Inc()
		return nil, false, fmt.Errorf("failed to fetch pinned repositories for %s: %w", login, err)
	}
	for _, e := range gqlErrs {
		c.logger.Warn("GitHub GraphQL reported an error",
			zap.String("login", login),
			zap.String("type", e.Type),
			zap.String("message", e.Message))
	}

	if data.User == nil || data.User.PinnedItems == nil {
		return nil, false, nil
	}

	repos := make([]Repository, 0, len(data.User.PinnedItems.Nodes))
	for _, n := range data.User.PinnedItems.Nodes {
		repos = append(repos, n.toRepository())
	}
	return repos, true, nil
}

func (n repositoryNode) toRepository() Repository {
	r := Repository{
		Name:   n.Name,
		URL:    n.URL,
		Stars:  n.StargazerCount,
		Forks:  n.ForkCount,
		Topics: make([]string, 0),
	}
	if n.Description != nil {
		r.Description = *n.Description
	}
	if n.PrimaryLanguage != nil {
		r.PrimaryLanguage = n.PrimaryLanguage.Name
	}
	if n.RepositoryTopics != nil {
		for _, t := range n.RepositoryTopics.Nodes {
			if t.Topic.Name != "" {
				r.Topics = append(r.Topics, t.Topic.Name)
			}
		}
	}
	return r
}

type readmeResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *client) FetchReadme(ctx context.Context, repoURL, token string) string {
	readme, err := c.fetchReadme(ctx, repoURL, token)
	if err != nil {
		metrics.SourceFetchFailures.WithLabelValues("github", "readme").Inc()
		c.logger.Warn("Failed to fetch README",
			zap.String("repo_url", repoURL),
			zap.String("error", logging.SanitizeError(err)))
		return ""
	}
	return readme
}

func (c *client) fetchReadme(ctx context.Context, repoURL, token string) (string, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/readme", c.restURL, url.PathEscape(owner), url.PathEscape(repo))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call GitHub: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub returned status %d for %s/%s", resp.StatusCode, owner, repo)
	}

	var rr readmeResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return "", fmt.Errorf("failed to decode README response: %w", err)
	}
	return decodeMIMEBase64(rr.Content)
}

// decodeMIMEBase64 decodes base64 split across lines, as GitHub returns file content.
// The result is storable as Postgres text: NUL bytes are dropped and invalid
// UTF-8 sequences become U+FFFD.
func decodeMIMEBase64(s string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	decoded, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("failed to decode README content: %w", err)
	}
	return strings.ToValidUTF8(strings.ReplaceAll(string(decoded), "\x00", ""), "\uFFFD"), nil
}

// ParseRepoURL extracts owner and name from https://github.com/<owner>/<repo>.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL %q: %w", repoURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository URL %q", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
