package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/models"
	"github.com/ekaya-inc/ekaya-ingest/pkg/services"
)

// HealthStatus is the status string reported by the ingestion health probe.
const HealthStatus = "Ingestion service is healthy"

// ============================================================================
// Request/Response Types
// ============================================================================

// GitHubIngestRequest for POST /api/ingestion/github
type GitHubIngestRequest struct {
	UserID string `json:"user_id"`
}

// LeetCodeIngestRequest for POST /api/ingestion/leetcode
type LeetCodeIngestRequest struct {
	UserID           string `json:"user_id"`
	LeetCodeUsername string `json:"leetcode_username"`
}

// ResumeIngestRequest for POST /api/ingestion/resume. Content is base64 in JSON.
type ResumeIngestRequest struct {
	UserID      string `json:"user_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"content"`
}

// LinkedInIngestRequest for POST /api/ingestion/linkedin
type LinkedInIngestRequest struct {
	UserID string `json:"user_id"`
	JobID  string `json:"job_id"`
}

// IngestAllHTTPRequest for POST /api/ingestion/all
type IngestAllHTTPRequest struct {
	UserID            string `json:"user_id"`
	LeetCodeUsername  string `json:"leetcode_username,omitempty"`
	ResumeFilename    string `json:"resume_filename,omitempty"`
	ResumeContentType string `json:"resume_content_type,omitempty"`
	ResumeContent     []byte `json:"resume_content,omitempty"`
}

// HealthCheckRequest for POST /api/ingestion/health
type HealthCheckRequest struct {
	CallerName string `json:"caller_name"`
}

// HealthCheckResponse for POST /api/ingestion/health
type HealthCheckResponse struct {
	Healthy         bool   `json:"healthy"`
	Status          string `json:"status"`
	TimestampMillis int64  `json:"timestamp_millis"`
}

// ============================================================================
// Handler
// ============================================================================

// IngestionHandler exposes the ingestion coordinators as JSON request/response pairs.
// Domain failures, coordinator errors and panics are all returned as 200 with
// success=false; only undecodable requests get a 4xx.
type IngestionHandler struct {
	github         services.GitHubIngestionService
	leetcode       services.LeetCodeIngestionService
	resume         services.ResumeIngestionService
	linkedin       services.LinkedInIngestionService
	composite      services.CompositeIngestionService
	maxUploadBytes int64
	now            func() time.Time
	logger         *zap.Logger
}

// NewIngestionHandler creates a new ingestion handler.
func NewIngestionHandler(
	github services.GitHubIngestionService,
	leetcode services.LeetCodeIngestionService,
	resume services.ResumeIngestionService,
	linkedin services.LinkedInIngestionService,
	composite services.CompositeIngestionService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *IngestionHandler {
	return &IngestionHandler{
		github:         github,
		leetcode:       leetcode,
		resume:         resume,
		linkedin:       linkedin,
		composite:      composite,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		logger:         logger.Named("ingestion-handler"),
	}
}

// RegisterRoutes registers the ingestion handler's routes on the given mux.
func (h *IngestionHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/ingestion"

	mux.HandleFunc("POST "+base+"/github", h.IngestGitHub)
	mux.HandleFunc("POST "+base+"/leetcode", h.IngestLeetCode)
	mux.HandleFunc("POST "+base+"/resume", h.IngestResume)
	mux.HandleFunc("POST "+base+"/linkedin", h.IngestLinkedInJob)
	mux.HandleFunc("POST "+base+"/all", h.IngestAll)
	mux.HandleFunc("POST "+base+"/health", h.HealthCheck)
}

// IngestGitHub handles POST /api/ingestion/github
func (h *IngestionHandler) IngestGitHub(w http.ResponseWriter, r *http.Request) {
	var req GitHubIngestRequest
	if !h.decode(w, r, &req) {
		return
	}
	fail := func(msg string) *models.GitHubOutcome {
		return &models.GitHubOutcome{Message: msg, RepoNames: []string{}}
	}

	out := guard(h.logger, "github", fail, func() (*models.GitHubOutcome, error) {
		userID, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		return h.github.IngestGitHub(r.Context(), userID)
	})
	h.respond(w, out)
}

// IngestLeetCode handles POST /api/ingestion/leetcode
func (h *IngestionHandler) IngestLeetCode(w http.ResponseWriter, r *http.Request) {
	var req LeetCodeIngestRequest
	if !h.decode(w, r, &req) {
		return
	}
	fail := func(msg string) *models.LeetCodeOutcome { return &models.LeetCodeOutcome{Message: msg} }

	out := guard(h.logger, "leetcode", fail, func() (*models.LeetCodeOutcome, error) {
		userID, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		return h.leetcode.IngestLeetCode(r.Context(), userID, req.LeetCodeUsername)
	})
	h.respond(w, out)
}

// IngestResume handles POST /api/ingestion/resume with either a JSON body or
// multipart/form-data carrying a user_id field and a file part.
func (h *IngestionHandler) IngestResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeIngestRequest
	if isMultipart(r) {
		var ok bool
		if req, ok = h.readResumeForm(w, r); !ok {
			return
		}
	} else if !h.decode(w, r, &req) {
		return
	}
	fail := func(msg string) *models.ResumeOutcome { return &models.ResumeOutcome{Message: msg} }

	out := guard(h.logger, "resume", fail, func() (*models.ResumeOutcome, error) {
		userID, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		return h.resume.IngestResume(r.Context(), userID, services.ResumeUpload{
			Filename:    req.Filename,
			ContentType: req.ContentType,
			Content:     req.Content,
		})
	})
	h.respond(w, out)
}

// IngestLinkedInJob handles POST /api/ingestion/linkedin
func (h *IngestionHandler) IngestLinkedInJob(w http.ResponseWriter, r *http.Request) {
	var req LinkedInIngestRequest
	if !h.decode(w, r, &req) {
		return
	}
	fail := func(msg string) *models.LinkedInOutcome { return &models.LinkedInOutcome{Message: msg} }

	out := guard(h.logger, "linkedin", fail, func() (*models.LinkedInOutcome, error) {
		userID, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		return h.linkedin.IngestLinkedInJob(r.Context(), userID, req.JobID)
	})
	h.respond(w, out)
}

// IngestAll handles POST /api/ingestion/all
func (h *IngestionHandler) IngestAll(w http.ResponseWriter, r *http.Request) {
	var req IngestAllHTTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	fail := func(msg string) *models.CompositeOutcome { return &models.CompositeOutcome{Message: msg} }

	out := guard(h.logger, "all", fail, func() (*models.CompositeOutcome, error) {
		userID, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		in := services.IngestAllRequest{UserID: userID, LeetCodeUsername: req.LeetCodeUsername}
		if len(req.ResumeContent) > 0 {
			in.Resume = &services.ResumeUpload{
				Filename:    req.ResumeFilename,
				ContentType: req.ResumeContentType,
				Content:     req.ResumeContent,
			}
		}
		return h.composite.IngestAll(r.Context(), in), nil
	})
	h.respond(w, out)
}

// HealthCheck handles POST /api/ingestion/health. It checks no dependencies.
func (h *IngestionHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var req HealthCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	h.logger.Debug("Health check requested", zap.String("caller", req.CallerName))

	h.respond(w, HealthCheckResponse{
		Healthy:         true,
		Status:          HealthStatus,
		TimestampMillis: h.now().UnixMilli(),
	})
}

// ============================================================================
// Helpers
// ============================================================================

// guard runs one coordinator call and converts a returned error, a nil result
// or a panic into the failure outcome built by fail.
func guard[O any](logger *zap.Logger, op string, fail func(string) *O, run func() (*O, error)) (out *O) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Ingestion request panicked", zap.String("operation", op), zap.Any("panic", rec))
			out = fail(fmt.Sprintf("Error: %v", rec))
		}
	}()

	res, err := run()
	if err != nil {
		logger.Error("Ingestion request failed",
			zap.String("operation", op),
			zap.String("error", logging.SanitizeError(err)))
		return fail("Error: " + logging.SanitizeError(err))
	}
	if res == nil {
		return fail("Error: no result")
	}
	return res
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *IngestionHandler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*2)
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

func (h *IngestionHandler) readResumeForm(w http.ResponseWriter, r *http.Request) (ResumeIngestRequest, bool) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid multipart body")
		return ResumeIngestRequest{}, false
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing_file", "Missing file part")
		return ResumeIngestRequest{}, false
	}
	defer file.Close()

	limit := h.maxUploadBytes
	if limit <= 0 {
		limit = header.Size
	}
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read file part")
		return ResumeIngestRequest{}, false
	}
	if int64(len(content)) > limit {
		h.writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", "Uploaded file too large")
		return ResumeIngestRequest{}, false
	}

	return ResumeIngestRequest{
		UserID:      r.FormValue("user_id"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, true
}

func (h *IngestionHandler) respond(w http.ResponseWriter, body any) {
	if err := WriteJSON(w, http.StatusOK, body); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *IngestionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
