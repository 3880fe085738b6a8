// Package sources holds the transport shared by the upstream source clients.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
)

// maxErrorBody caps how much of an upstream error body ends up in an error message.
const maxErrorBody = 512

// GraphQLClient posts GraphQL queries to one endpoint with a per-call deadline.
type GraphQLClient struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	headers    http.Header
}

// NewGraphQLClient creates a client for endpoint. headers are sent on every request.
func NewGraphQLClient(endpoint string, httpClient *http.Client, timeout time.Duration, headers http.Header) *GraphQLClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLClient{
		endpoint:   endpoint,
		httpClient: httpClient,
		timeout:    timeout,
		headers:    headers,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Do runs query and decodes the "data" member into result.
//
// A response carrying both data and errors is decoded normally and the errors
// are returned alongside a nil error; upstreams report unknown handles that way
// and callers detect them from the decoded data. Transport failures, non-2xx
// statuses, undecodable bodies and errors without data wrap
// apperrors.ErrUpstreamUnavailable.
func (c *GraphQLClient) Do(ctx context.Context, query string, variables map[string]any, authToken string, result any) ([]GraphQLError, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create graphql request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: graphql request failed: %w", apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read graphql response: %w", apperrors.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: graphql endpoint returned status %d: %s",
			apperrors.ErrUpstreamUnavailable, resp.StatusCode, truncate(string(body)))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode graphql response: %w", apperrors.ErrUpstreamUnavailable, err)
	}

	if isNullJSON(gqlResp.Data) {
		if len(gqlResp.Errors) > 0 {
			return gqlResp.Errors, fmt.Errorf("%w: graphql error: %s",
				apperrors.ErrUpstreamUnavailable, gqlResp.Errors[0].Message)
		}
		return nil, nil
	}

	if result != nil {
		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return gqlResp.Errors, fmt.Errorf("%w: failed to decode graphql data: %w", apperrors.ErrUpstreamUnavailable, err)
		}
	}

	return gqlResp.Errors, nil
}

func isNullJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
