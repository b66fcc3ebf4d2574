package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(fsOperationsTotal.WithLabelValues("copy", "exists"))
	RecordOperation("copy", "exists", 5*time.Millisecond)
	RecordOperation("copy", "exists", time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(fsOperationsTotal.WithLabelValues("copy", "exists")))
}

func TestSessions(t *testing.T) {
	before := testutil.ToFloat64(activeSessions)
	SessionOpened()
	SessionOpened()
	SessionClosed()

	assert.Equal(t, before+1, testutil.ToFloat64(activeSessions))
	SessionClosed()
}

func TestHandler(t *testing.T) {
	RecordListing(3)
	RecordHTTPRequest(http.MethodGet, "/fs/list", http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flitz_listing_entries")
	assert.Contains(t, w.Body.String(), `flitz_http_requests_total{method="GET",route="/fs/list",status="200"}`)
}
