package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output has a sample of name whose
// labels match the pattern. Extra OTel scope labels are tolerated.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("prosa")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "prosa")
	require.NoError(t, err)
	assert.IsType(t, &businessMetrics{}, bm)
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)

	noOpMetrics.RecordOperation(context.Background(), "auth", "session_login", "success")
	noOpMetrics.RecordDuration(context.Background(), "auth", "session_login", time.Millisecond, "success")
}

func TestBusinessMetrics_Export(t *testing.T) {
	provider, err := NewProvider("export_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "export_test")
	require.NoError(t, err)
	ctx := context.Background()

	bm.RecordOperation(ctx, "auth", "session_refresh", "success")
	bm.RecordOperation(ctx, "auth", "session_refresh", "success")
	bm.RecordOperation(ctx, "auth", "session_refresh", "error")
	bm.RecordOperation(ctx, "auth", "access_authorize", "not_found")

	bm.RecordDuration(ctx, "auth", "session_refresh", 4*time.Millisecond, "success")
	bm.RecordDuration(ctx, "auth", "session_refresh", 6*time.Millisecond, "success")

	output := scrape(t, provider)

	assertMetricLine(t, output, `export_test_operations_total`,
		`domain="auth".*operation="session_refresh".*status="success"`, `2`)
	assertMetricLine(t, output, `export_test_operations_total`,
		`domain="auth".*operation="session_refresh".*status="error"`, `1`)
	assertMetricLine(t, output, `export_test_operations_total`,
		`domain="auth".*operation="access_authorize".*status="not_found"`, `1`)
	assertMetricLine(t, output, `export_test_operation_duration_seconds_count`,
		`domain="auth".*operation="session_refresh".*status="success"`, `2`)
	assertMetricLine(t, output, `export_test_operation_duration_seconds_bucket`,
		`le="0.005"`, `1`)
}
