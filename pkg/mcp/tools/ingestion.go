package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/services"
)

// IngestionToolDeps holds the coordinators the ingestion tools call.
type IngestionToolDeps struct {
	GitHub   services.GitHubIngestionService
	LeetCode services.LeetCodeIngestionService
	Resume   services.ResumeIngestionService
	LinkedIn services.LinkedInIngestionService
	Logger   *zap.Logger
}

// RegisterIngestionTools adds ingest_github, ingest_leetcode, ingest_resume
// and ingest_linkedin_job. Each returns the source's outcome as JSON; a
// failed outcome is flagged isError.
func RegisterIngestionTools(s *server.MCPServer, deps *IngestionToolDeps) {
	registerGitHubTool(s, deps)
	registerLeetCodeTool(s, deps)
	registerResumeTool(s, deps)
	registerLinkedInTool(s, deps)
}

func userIDParam() mcp.ToolOption {
	return mcp.WithString("user_id", mcp.Required(), mcp.Description("UUID of the user to ingest for"))
}

func registerGitHubTool(s *server.MCPServer, deps *IngestionToolDeps) {
	tool := mcp.NewTool(
		"ingest_github",
		mcp.WithDescription("Ingest the user's pinned GitHub repositories (up to 6, with READMEs) into their knowledge base and refresh their GitHub stats."),
		userIDParam(),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, errResult := requireUserID(req)
		if errResult != nil {
			return errResult, nil
		}
		out, err := deps.GitHub.IngestGitHub(ctx, userID)
		if err != nil {
			return failedResult(deps.Logger, "ingest_github", err), nil
		}
		return jsonResult(out, !out.Success)
	})
}

func registerLeetCodeTool(s *server.MCPServer, deps *IngestionToolDeps) {
	tool := mcp.NewTool(
		"ingest_leetcode",
		mcp.WithDescription("Ingest a LeetCode profile (problems, contests, languages, recent submissions). Uses the user's stored handle when leetcode_username is omitted."),
		userIDParam(),
		mcp.WithString("leetcode_username", mcp.Description("LeetCode handle")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, errResult := requireUserID(req)
		if errResult != nil {
			return errResult, nil
		}
		out, err := deps.LeetCode.IngestLeetCode(ctx, userID, trimString(getOptionalString(req, "leetcode_username")))
		if err != nil {
			return failedResult(deps.Logger, "ingest_leetcode", err), nil
		}
		return jsonResult(out, !out.Success)
	})
}

func registerResumeTool(s *server.MCPServer, deps *IngestionToolDeps) {
	tool := mcp.NewTool(
		"ingest_resume",
		mcp.WithDescription("Extract, clean and analyze a PDF résumé and store it in the user's knowledge base."),
		userIDParam(),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Original file name, e.g. cv.pdf")),
		mcp.WithString("content_base64", mcp.Required(), mcp.Description("PDF bytes, standard base64")),
		mcp.WithString("content_type", mcp.Description("Declared content type, e.g. application/pdf")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, errResult := requireUserID(req)
		if errResult != nil {
			return errResult, nil
		}
		filename, err := req.RequireString("filename")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		encoded, err := req.RequireString("content_base64")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		content, err := base64.StdEncoding.DecodeString(trimString(encoded))
		if err != nil {
			return NewErrorResult("invalid_parameters", "content_base64 is not valid base64"), nil
		}

		out, err := deps.Resume.IngestResume(ctx, userID, services.ResumeUpload{
			Filename:    trimString(filename),
			ContentType: trimString(getOptionalString(req, "content_type")),
			Content:     content,
		})
		if err != nil {
			return failedResult(deps.Logger, "ingest_resume", err), nil
		}
		return jsonResult(out, !out.Success)
	})
}

func registerLinkedInTool(s *server.MCPServer, deps *IngestionToolDeps) {
	tool := mcp.NewTool(
		"ingest_linkedin_job",
		mcp.WithDescription("Fetch a public LinkedIn job posting by its 10-digit id, store it for the user, and return it as Markdown."),
		userIDParam(),
		mcp.WithString("job_id", mcp.Required(), mcp.Description("10-digit LinkedIn job id")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, errResult := requireUserID(req)
		if errResult != nil {
			return errResult, nil
		}
		jobID, err := req.RequireString("job_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		out, err := deps.LinkedIn.IngestLinkedInJob(ctx, userID, trimString(jobID))
		if err != nil {
			return failedResult(deps.Logger, "ingest_linkedin_job", err), nil
		}
		return jsonResult(out, !out.Success)
	})
}

func requireUserID(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString("user_id")
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_parameters", err.Error())
	}
	id, err := uuid.Parse(trimString(raw))
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_user_id", fmt.Sprintf("invalid user id %q", raw))
	}
	return id, nil
}

func failedResult(logger *zap.Logger, tool string, err error) *mcp.CallToolResult {
	msg := logging.SanitizeError(err)
	if logger != nil {
		logger.Error("Ingestion tool failed", zap.String("tool", tool), zap.String("error", msg))
	}
	return NewErrorResult("ingestion_failed", "Error: "+msg)
}

func trimString(s string) string {
	return strings.TrimSpace(s)
}

// getOptionalString returns the string argument key or "" when absent.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, _ := args[key].(string)
	return val
}
