package linkedin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
)

const jobPage = `<html><body>
<div class="description">
  <div class="show-more-less-html__markup show-more-less-html__markup--clamp-after-5">
    <strong>About the role</strong><br>
    We build ingestion pipelines.<br><br>
    <strong>Requirements</strong><br>
    <ul>
      <li><strong>Go</strong> experience</li>
      <li>PostgreSQL</li>
    </ul>
  </div>
</div>
</body></html>`

const emptyRegionPage = `<html><body><div class="show-more-less-html__markup--clamp-after-5">   </div></body></html>`

func TestValidJobID(t *testing.T) {
	assert.True(t, ValidJobID("1234567890"))
	assert.False(t, ValidJobID("12345"))
	assert.False(t, ValidJobID("12345678901"))
	assert.False(t, ValidJobID("12345abcde"))
	assert.False(t, ValidJobID("１２３４５６７８９０"), "full-width digits are not ASCII")
	assert.False(t, ValidJobID(""))
}

func newJobServer(t *testing.T, pages map[string]string) (*httptest.Server, *string) {
	t.Helper()
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		page, ok := pages[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if page == "" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server, &gotUA
}

func TestFetchJob_ShortIDIsNotFoundWithoutRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer server.Close()

	c := NewClient(server.URL+"/jobs/view", "test-agent", server.Client(), time.Second, zap.NewNop())
	content, found, err := c.FetchJob(context.Background(), "12345")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, content)
	assert.False(t, called)
}

func TestFetchJob_MissingRegionIsNotFound(t *testing.T) {
	server, _ := newJobServer(t, map[string]string{
		"1234567890": `<html><body><p>Sign in to view</p></body></html>`,
		"1111111111": emptyRegionPage,
	})
	c := NewClient(server.URL+"/jobs/view", "test-agent", server.Client(), time.Second, zap.NewNop())

	_, found, err := c.FetchJob(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.FetchJob(context.Background(), "1111111111")
	require.NoError(t, err)
	assert.False(t, found, "whitespace-only region counts as missing")

	_, found, err = c.FetchJob(context.Background(), "9999999999")
	require.NoError(t, err)
	assert.False(t, found, "404 page counts as missing")
}

func TestFetchJob_Success(t *testing.T) {
	server, gotUA := newJobServer(t, map[string]string{"4012345678": jobPage})
	c := NewClient(server.URL+"/jobs/view", "Mozilla/5.0 test", server.Client(), time.Second, zap.NewNop())

	content, found, err := c.FetchJob(context.Background(), "4012345678")

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Mozilla/5.0 test", *gotUA)
	assert.Contains(t, content, "### About the role")
	assert.Contains(t, content, "### Requirements")
	assert.Contains(t, content, "We build ingestion pipelines.")
	assert.Contains(t, content, "**Go** experience", "bold inside list items stays inline")
	assert.NotContains(t, content, "<br")
}

func TestFetchJob_UpstreamFailure(t *testing.T) {
	server, _ := newJobServer(t, map[string]string{"4012345678": ""})
	c := NewClient(server.URL+"/jobs/view", "test-agent", server.Client(), time.Second, zap.NewNop())

	_, found, err := c.FetchJob(context.Background(), "4012345678")

	require.Error(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestCleanJobMarkup(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="r"><strong>Benefits</strong><br>Remote<br><br>Equity<ul><li><strong>Keep</strong></li></ul><strong> </strong></div>`))
	require.NoError(t, err)
	region := doc.Find("#r")

	CleanJobMarkup(region)

	out, err := region.Html()
	require.NoError(t, err)
	assert.Equal(t, `<h3>Benefits</h3>Remote<br/>Equity<ul><li><strong>Keep</strong></li></ul><strong> </strong>`, out)
}

func TestJobURL(t *testing.T) {
	c := NewClient("https://www.linkedin.com/jobs/view/", "ua", nil, time.Second, zap.NewNop())
	assert.Equal(t, "https://www.linkedin.com/jobs/view/1234567890", c.JobURL("1234567890"))
}
