// Package processing provides a client for the downstream processing service
// that generates embeddings for newly written knowledge-base entries.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
)

// DefaultTimeout is the maximum time to wait for the processing service.
const DefaultTimeout = 30 * time.Second

// TriggerRequest is the body sent to the processing service.
type TriggerRequest struct {
	UserID           string   `json:"user_id"`
	SourceType       string   `json:"source_type"`
	KnowledgeBaseIDs []string `json:"knowledge_base_ids"`
}

// TriggerResponse is the processing service's acknowledgement.
type TriggerResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	EntriesQueued int    `json:"entries_queued"`
}

// Trigger notifies the processing service about new knowledge-base entries.
type Trigger interface {
	TriggerEmbeddingGeneration(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, kbIDs []uuid.UUID) (*TriggerResponse, error)
}

// Client calls the processing service over HTTP.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Trigger = (*Client)(nil)

// NewClient creates a processing client. An empty baseURL yields a client whose
// trigger is a no-op.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.Named("processing"),
	}
}

// Enabled reports whether a processing service is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// TriggerEmbeddingGeneration posts the entry ids to the processing service
// under a deadline. It returns (nil, nil) when no service is configured or
// there are no ids.
func (c *Client) TriggerEmbeddingGeneration(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, kbIDs []uuid.UUID) (*TriggerResponse, error) {
	if !c.Enabled() || len(kbIDs) == 0 {
		return nil, nil
	}

	endpoint, err := buildURL(c.baseURL, "api", "v1", "embeddings", "trigger")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	ids := make([]string, len(kbIDs))
	for i, id := range kbIDs {
		ids[i] = id.String()
	}
	body, err := json.Marshal(TriggerRequest{
		UserID:           userID.String(),
		SourceType:       string(sourceType),
		KnowledgeBaseIDs: ids,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Info("Triggering embedding generation",
		zap.String("user_id", userID.String()),
		zap.String("source_type", string(sourceType)),
		zap.Int("entries", len(kbIDs)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call processing service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Processing service returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.TruncateString(string(respBody), 512)))
		return nil, fmt.Errorf("processing service returned status %d", resp.StatusCode)
	}

	var out TriggerResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	c.logger.Info("Embedding generation triggered",
		zap.Bool("success", out.Success),
		zap.String("message", out.Message),
		zap.Int("entries_queued", out.EntriesQueued))

	return &out, nil
}

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}
