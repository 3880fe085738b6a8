package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
)

const maxLoggedArgument = 200

var sensitiveArgumentKeys = []string{"password", "secret", "token", "credential", "content"}

// MCPRequestLogger logs MCP JSON-RPC tool calls with their arguments redacted.
// Tool results flagged isError are logged at WARN. A nil logger disables logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var call rpcCall
			_ = json.Unmarshal(body, &call)

			logger.Debug("MCP request",
				zap.String("method", call.Method),
				zap.String("tool", call.Params.Name),
				zap.Any("arguments", redactArguments(call.Params.Arguments)))

			rec := &bodyRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			var reply rpcReply
			if err := json.Unmarshal(rec.body.Bytes(), &reply); err != nil {
				return
			}

			switch {
			case reply.Error != nil:
				logger.Warn("MCP protocol error",
					zap.String("tool", call.Params.Name),
					zap.Int("code", reply.Error.Code),
					zap.String("message", reply.Error.Message),
					zap.Duration("duration", duration))
			case reply.Result.IsError:
				logger.Warn("MCP tool reported failure",
					zap.String("tool", call.Params.Name),
					zap.Duration("duration", duration))
			default:
				logger.Debug("MCP tool completed",
					zap.String("tool", call.Params.Name),
					zap.Duration("duration", duration))
			}
		})
	}
}

type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcReply struct {
	Result struct {
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// redactArguments hides credential-like and bulk fields and scrubs tokens
// from the rest.
func redactArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveKey(k) {
			out[k] = logging.RedactedText
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = logging.TruncateString(logging.SanitizeText(s), maxLoggedArgument)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, word := range sensitiveArgumentKeys {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
