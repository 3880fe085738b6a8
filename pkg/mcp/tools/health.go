package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// HealthStatus is reported by the health tool.
const HealthStatus = "Ingestion service is healthy"

type healthResult struct {
	Healthy         bool   `json:"healthy"`
	Status          string `json:"status"`
	TimestampMillis int64  `json:"timestamp_millis"`
	Version         string `json:"version"`
}

// RegisterHealthTool adds the stateless health probe.
func RegisterHealthTool(s *server.MCPServer, version string, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns ingestion service health, current time and version. Checks no dependencies."),
		mcp.WithString("caller_name", mcp.Description("Name of the calling service, for logs")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(healthResult{
			Healthy:         true,
			Status:          HealthStatus,
			TimestampMillis: now().UnixMilli(),
			Version:         version,
		}, false)
	})
}
