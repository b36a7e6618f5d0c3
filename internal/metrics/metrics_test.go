package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(CatalogRequests.WithLabelValues("list_domains", "ok"))
	beforeErr := testutil.ToFloat64(CatalogRequests.WithLabelValues("list_domains", "server_error"))

	ObserveRequest("list_domains", "", 5*time.Millisecond)
	ObserveRequest("list_domains", "server_error", time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(CatalogRequests.WithLabelValues("list_domains", "ok")))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(CatalogRequests.WithLabelValues("list_domains", "server_error")))
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	ObserveRequest("fetch_attributes", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "firefly_catalog_requests_total"))
	assert.True(t, strings.Contains(body, "firefly_catalog_request_duration_seconds"))
}
