package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, RunStatus(true, nil))
	assert.Equal(t, StatusFailure, RunStatus(false, nil))
	assert.Equal(t, StatusError, RunStatus(false, errors.New("db down")))
}

func TestObserveRun_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(IngestionRuns.WithLabelValues("github", StatusSuccess))

	ObserveRun("github", StatusSuccess, time.Now())

	after := testutil.ToFloat64(IngestionRuns.WithLabelValues("github", StatusSuccess))
	assert.Equal(t, before+1, after)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	Init()
	Init()
	KnowledgeBaseUpserts.WithLabelValues("resume").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "knowledge_base_upserts_total")
}
