// Package mcp exposes the ingestion coordinators as MCP tools.
package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ServerName is the MCP implementation name advertised on initialize.
const ServerName = "ekaya-ingest"

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with tool support.
func NewServer(version string, logger *zap.Logger) *Server {
	return &Server{
		mcp: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		logger: logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Handler returns a stateless streamable HTTP transport. The caller mounts it
// at its own path, so no endpoint path is configured here.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
}

// RegisterTool registers one tool with its handler.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.logger.Debug("Registering MCP tool", zap.String("tool", tool.Name))
	s.mcp.AddTool(tool, handler)
}
