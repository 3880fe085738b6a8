// Package linkedin scrapes the description of a public LinkedIn job posting
// and renders it as Markdown.
package linkedin

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
)

// JobIDLength is the exact number of ASCII digits in a job id.
const JobIDLength = 10

// ContentSelector locates the job description region on the public job page.
const ContentSelector = ".show-more-less-html__markup--clamp-after-5"

// ValidJobID reports whether id is exactly JobIDLength ASCII digits.
func ValidJobID(id string) bool {
	if len(id) != JobIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// Client fetches job postings.
type Client interface {
	// FetchJob returns the posting as Markdown. found is false for a malformed
	// id, a missing posting, or a page without a non-empty content region.
	FetchJob(ctx context.Context, jobID string) (markdown string, found bool, err error)
	// JobURL is the public page for jobID.
	JobURL(jobID string) string
}

type client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	timeout    time.Duration
	converter  *md.Converter
	logger     *zap.Logger
}

// NewClient creates a scraper for job pages under baseURL (".../jobs/view").
func NewClient(baseURL, userAgent string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		timeout:    timeout,
		converter:  md.NewConverter("", true, nil),
		logger:     logger.Named("linkedin-client"),
	}
}

var _ Client = (*client)(nil)

func (c *client) JobURL(jobID string) string {
	return c.baseURL + "/" + jobID
}

func (c *client) FetchJob(ctx context.Context, jobID string) (string, bool, error) {
	if !ValidJobID(jobID) {
		c.logger.Warn("Invalid job id format", zap.String("job_id", jobID), zap.Int("expected_digits", JobIDLength))
		return "", false, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.JobURL(jobID), nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.SourceFetchFailures.WithLabelValues("linkedin", "job_page").Inc()
		return "", false, fmt.Errorf("%w: failed to fetch job page: %w", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		metrics.SourceFetchFailures.WithLabelValues("linkedin", "job_page").Inc()
		return "", false, fmt.Errorf("%w: job page returned status %d", apperrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to parse job page: %w", apperrors.ErrUpstreamUnavailable, err)
	}

	region := doc.Find(ContentSelector).First()
	if region.Length() == 0 || strings.TrimSpace(region.Text()) == "" {
		c.logger.Warn("Job content region not found", zap.String("job_id", jobID))
		return "", false, nil
	}

	markdown, err := c.toMarkdown(region)
	if err != nil {
		return "", false, err
	}
	return markdown, true, nil
}

// toMarkdown normalizes the region's markup and converts it.
func (c *client) toMarkdown(region *goquery.Selection) (string, error) {
	CleanJobMarkup(region)

	body, err := region.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render job markup: %w", err)
	}

	markdown, err := c.converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert job markup: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

// CleanJobMarkup drops the <br> after a bold label, turns bold run-in
// labels outside list items into <h3> headings, then collapses doubled <br>.
func CleanJobMarkup(region *goquery.Selection) {
	region.Find("strong + br").Remove()

	region.Find("strong").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || goquery.NodeName(s.Parent()) == "li" {
			return
		}
		s.BeforeHtml("<h3>" + html.EscapeString(text) + "</h3>")
		s.Remove()
	})

	region.Find("br + br").Remove()
}
