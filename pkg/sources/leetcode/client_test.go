package leetcode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
)

const (
	profileFixture = `{"data":{"matchedUser":{
		"username":"algo_amy",
		"profile":{"realName":"Amy","aboutMe":"Graphs","ranking":12345,"reputation":7,"starRating":4.5},
		"submitStatsGlobal":{"acSubmissionNum":[
			{"difficulty":"All","count":250},
			{"difficulty":"Easy","count":100},
			{"difficulty":"Medium","count":120},
			{"difficulty":"Hard","count":30}]},
		"badges":[{"name":"50 Days Badge 2024","icon":"x"}],
		"activeBadge":{"name":"50 Days Badge 2024","icon":"x"}}}}`
	submissionsFixture = `{"data":{"recentAcSubmissionList":[
		{"id":"1","title":"Two Sum","titleSlug":"two-sum","timestamp":"1700000000","lang":"golang"},
		{"id":"2","title":"LRU Cache","titleSlug":"lru-cache","timestamp":"1700000100","lang":"python3"}]}}`
	contestFixture   = `{"data":{"userContestRanking":{"attendedContestsCount":12,"rating":1834.72,"globalRanking":40210,"topPercentage":9.31}}}`
	languageFixture  = `{"data":{"matchedUser":{"languageProblemCount":[{"languageName":"Go","problemsSolved":180},{"languageName":"Python3","problemsSolved":70}]}}}`
	notFoundFixture  = `{"data":{"matchedUser":null},"errors":[{"message":"That user does not exist."}]}`
	noContestFixture = `{"data":{"userContestRanking":null}}`
)

// routeByQuery answers each of the four queries from responses keyed by operation name.
func routeByQuery(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultReferer, r.Header.Get("Referer"))
		raw, _ := io.ReadAll(r.Body)
		var body struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(raw, &body)
		for op, resp := range responses {
			if strings.Contains(body.Query, op) {
				if resp == "" {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				_, _ = w.Write([]byte(resp))
				return
			}
		}
		t.Errorf("unexpected query: %s", body.Query)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_AllQueriesSucceed(t *testing.T) {
	server := routeByQuery(t, map[string]string{
		"getUserProfile":        profileFixture,
		"getRecentSubmissions":  submissionsFixture,
		"getUserContestRanking": contestFixture,
		"languageStats":         languageFixture,
	})

	c := NewClient(server.URL, server.Client(), time.Second, zap.NewNop())
	snap, err := c.Fetch(context.Background(), "algo_amy")

	require.NoError(t, err)
	require.NotNil(t, snap.Profile)
	assert.True(t, snap.Complete())

	assert.Equal(t, "algo_amy", snap.Profile.Username)
	assert.Equal(t, 12345, snap.Profile.Ranking)
	assert.Equal(t, 250, snap.Profile.TotalSolved)
	assert.Equal(t, 100, snap.Profile.Easy)
	assert.Equal(t, 120, snap.Profile.Medium)
	assert.Equal(t, 30, snap.Profile.Hard)
	assert.InDelta(t, 4.5, snap.Profile.StarRating, 1e-9)
	assert.Equal(t, []string{"50 Days Badge 2024"}, snap.Profile.Badges)
	assert.Equal(t, "50 Days Badge 2024", snap.Profile.ActiveBadge)

	require.Len(t, snap.Submissions, 2)
	assert.Equal(t, "two-sum", snap.Submissions[0].TitleSlug)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), snap.Submissions[0].Timestamp)

	require.NotNil(t, snap.Contest)
	assert.Equal(t, 12, snap.Contest.AttendedContests)
	assert.InDelta(t, 1834.72, snap.Contest.Rating, 1e-9)

	assert.Equal(t, map[string]int{"Go": 180, "Python3": 70}, snap.Languages)
}

func TestFetch_UnknownHandle(t *testing.T) {
	server := routeByQuery(t, map[string]string{
		"getUserProfile":        notFoundFixture,
		"getRecentSubmissions":  `{"data":{"recentAcSubmissionList":[]}}`,
		"getUserContestRanking": noContestFixture,
		"languageStats":         `{"data":{"matchedUser":null}}`,
	})

	c := NewClient(server.URL, server.Client(), time.Second, zap.NewNop())
	snap, err := c.Fetch(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, snap.Profile)
	assert.Empty(t, snap.Submissions)
	assert.Nil(t, snap.Contest)
	assert.Empty(t, snap.Languages)
}

func TestFetch_SecondaryFailuresDoNotAbort(t *testing.T) {
	server := routeByQuery(t, map[string]string{
		"getUserProfile":        profileFixture,
		"getRecentSubmissions":  "",
		"getUserContestRanking": "",
		"languageStats":         languageFixture,
	})

	c := NewClient(server.URL, server.Client(), time.Second, zap.NewNop())
	snap, err := c.Fetch(context.Background(), "algo_amy")

	require.NoError(t, err)
	require.NotNil(t, snap.Profile)
	assert.False(t, snap.Complete())
	assert.Contains(t, snap.Failures, CallSubmissions)
	assert.Contains(t, snap.Failures, CallContest)
	assert.Empty(t, snap.Submissions)
	assert.Nil(t, snap.Contest)
	assert.Equal(t, 180, snap.Languages["Go"])
}

func TestFetch_ProfileFailureIsError(t *testing.T) {
	server := routeByQuery(t, map[string]string{
		"getUserProfile":        "",
		"getRecentSubmissions":  submissionsFixture,
		"getUserContestRanking": contestFixture,
		"languageStats":         languageFixture,
	})

	c := NewClient(server.URL, server.Client(), time.Second, zap.NewNop())
	snap, err := c.Fetch(context.Background(), "algo_amy")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	assert.Nil(t, snap.Profile)
	assert.Len(t, snap.Submissions, 2, "sibling queries still complete")
}
