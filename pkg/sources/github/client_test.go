package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
)

const pinnedFixture = `{
  "data": {
    "user": {
      "pinnedItems": {
        "nodes": [
          {
            "name": "ekaya-cli",
            "description": "Command line tools",
            "url": "https://github.com/octocat/ekaya-cli",
            "stargazerCount": 3,
            "forkCount": 1,
            "primaryLanguage": {"name": "Go", "color": "#00ADD8"},
            "repositoryTopics": {"nodes": [{"topic": {"name": "cli"}}, {"topic": {"name": "golang"}}]}
          },
          {
            "name": "dotfiles",
            "description": null,
            "url": "https://github.com/octocat/dotfiles",
            "stargazerCount": 0,
            "forkCount": 0,
            "primaryLanguage": null,
            "repositoryTopics": {"nodes": []}
          }
        ]
      }
    }
  }
}`

func newTestServer(t *testing.T, graphql http.HandlerFunc, readme http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	if graphql != nil {
		mux.HandleFunc("/graphql", graphql)
	}
	if readme != nil {
		mux.HandleFunc("/repos/", readme)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchPinnedRepositories_Parses(t *testing.T) {
	var gotVars map[string]any
	var gotAuth string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Variables map[string]any `json:"variables"`
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		gotVars = body.Variables
		_, _ = w.Write([]byte(pinnedFixture))
	}, nil)

	c := NewClient(server.URL+"/graphql", server.URL, server.Client(), time.Second, zap.NewNop())
	repos, found, err := c.FetchPinnedRepositories(context.Background(), "octocat", "ghp_test")

	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, repos, 2)

	assert.Equal(t, "Bearer ghp_test", gotAuth)
	assert.Equal(t, "octocat", gotVars["login"])
	assert.EqualValues(t, MaxPinnedRepos, gotVars["first"])
	assert.EqualValues(t, MaxTopicsPerRepo, gotVars["topics"])

	assert.Equal(t, Repository{
		Name:            "ekaya-cli",
		Description:     "Command line tools",
		URL:             "https://github.com/octocat/ekaya-cli",
		Stars:           3,
		Forks:           1,
		PrimaryLanguage: "Go",
		Topics:          []string{"cli", "golang"},
	}, repos[0])
	assert.Equal(t, "", repos[1].PrimaryLanguage)
	assert.Equal(t, "", repos[1].Description)
	assert.Empty(t, repos[1].Topics)
}

func TestFetchPinnedRepositories_UnknownUser(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"user":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a User with the login of 'ghost'."}]}`))
	}, nil)

	c := NewClient(server.URL+"/graphql", server.URL, server.Client(), time.Second, zap.NewNop())
	repos, found, err := c.FetchPinnedRepositories(context.Background(), "ghost", "tok")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, repos)
}

func TestFetchPinnedRepositories_UpstreamDown(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}, nil)

	c := NewClient(server.URL+"/graphql", server.URL, server.Client(), time.Second, zap.NewNop())
	_, found, err := c.FetchPinnedRepositories(context.Background(), "octocat", "bad")

	require.Error(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestFetchReadme_DecodesMIMEBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("# ekaya-cli\n\nCommand line tools for everyone."))
	// GitHub wraps content at 60 columns.
	wrapped := encoded[:20] + "\n" + encoded[20:]

	var gotPath string
	server := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"content": wrapped, "encoding": "base64"})
	})

	c := NewClient(server.URL+"/graphql", server.URL, server.Client(), time.Second, zap.NewNop())
	readme := c.FetchReadme(context.Background(), "https://github.com/octocat/ekaya-cli", "tok")

	assert.Equal(t, "/repos/octocat/ekaya-cli/readme", gotPath)
	assert.Equal(t, "# ekaya-cli\n\nCommand line tools for everyone.", readme)
}

func TestFetchReadme_NormalizesUnstorableBytes(t *testing.T) {
	// Latin-1 "é" and an embedded NUL, neither accepted by a Postgres text column.
	encoded := base64.StdEncoding.EncodeToString([]byte("caf\xe9\x00 readme"))
	server := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"content": encoded, "encoding": "base64"})
	})

	c := NewClient(server.URL+"/graphql", server.URL, server.Client(), time.Second, zap.NewNop())
	readme := c.FetchReadme(context.Background(), "https://github.com/octocat/latin1", "tok")

	assert.Equal(t, "caf\uFFFD readme", readme)
	assert.True(t, utf8.ValidString(readme))
	assert.NotContains(t, readme, "\x00")
}

func TestFetchReadme_FailureYieldsEmpty(t *testing.T) {
	server := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := NewClient(server.URL+"/graphql", server.URL, server.Client(), time.Second, zap.NewNop())

	assert.Equal(t, "", c.FetchReadme(context.Background(), "https://github.com/octocat/none", "tok"))
	assert.Equal(t, "", c.FetchReadme(context.Background(), "not a repo url", "tok"))
}

func TestParseRepoURL(t *testing.T) {
	owner, repo, err := ParseRepoURL("https://github.com/ekaya-inc/ekaya-ingest")
	require.NoError(t, err)
	assert.Equal(t, "ekaya-inc", owner)
	assert.Equal(t, "ekaya-ingest", repo)

	_, _, err = ParseRepoURL("https://github.com/only-owner")
	assert.Error(t, err)
}

type stubReadmeClient struct {
	Client
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *stubReadmeClient) FetchReadme(ctx context.Context, repoURL, token string) string {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return "readme of " + repoURL[strings.LastIndex(repoURL, "/")+1:]
}

func TestFetchReadmes_OrderedAndBounded(t *testing.T) {
	repos := []Repository{
		{URL: "https://github.com/o/a"},
		{URL: "https://github.com/o/b"},
		{URL: "https://github.com/o/c"},
		{URL: "https://github.com/o/d"},
		{URL: "https://github.com/o/e"},
	}
	stub := &stubReadmeClient{}

	require.NoError(t, FetchReadmes(context.Background(), stub, repos, "tok", 2))

	for _, r := range repos {
		assert.Equal(t, "readme of "+r.URL[len(r.URL)-1:], r.Readme)
	}
	assert.LessOrEqual(t, stub.maxSeen.Load(), int32(2))
}

func TestFetchReadmes_Empty(t *testing.T) {
	assert.NoError(t, FetchReadmes(context.Background(), &stubReadmeClient{}, nil, "tok", 4))
}
