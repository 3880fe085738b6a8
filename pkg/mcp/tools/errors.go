package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse is a structured error carried in a tool result so the
// caller sees the details instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult returns a tool result flagged isError carrying an ErrorResponse.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	body, _ := json.Marshal(ErrorResponse{Error: true, Code: code, Message: message})
	result := mcp.NewToolResultText(string(body))
	result.IsError = true
	return result
}

// jsonResult encodes v as the tool's text content. isError marks a domain
// failure so MCP clients can tell it from a success.
func jsonResult(v any, isError bool) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	result := mcp.NewToolResultText(string(body))
	result.IsError = isError
	return result, nil
}
