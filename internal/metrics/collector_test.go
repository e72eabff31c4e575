package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Each test gets its own namespace; the default registerer rejects
// duplicate metric names.
var namespaceCounter int

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	namespaceCounter++
	return NewCollector(fmt.Sprintf("waybridge_test_%d", namespaceCounter), zap.NewNop())
}

func TestCollector_RecordDispatch(t *testing.T) {
	c := newTestCollector(t)

	c.RecordDispatch("execute_task", "success", 10*time.Millisecond)
	c.RecordDispatch("execute_task", "success", 20*time.Millisecond)
	c.RecordDispatch("capture_screenshot", "NOT_IMPLEMENTED", time.Millisecond)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(c.requestsTotal.WithLabelValues("execute_task", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.requestsTotal.WithLabelValues("capture_screenshot", "NOT_IMPLEMENTED")))
}

func TestCollector_InFlight(t *testing.T) {
	c := newTestCollector(t)

	c.IncInFlight()
	c.IncInFlight()
	assert.Equal(t, float64(2), testutil.ToFloat64(c.inFlight))

	c.DecInFlight()
	assert.Equal(t, float64(1), testutil.ToFloat64(c.inFlight))
}

func TestCollector_BackendFailures(t *testing.T) {
	c := newTestCollector(t)

	c.RecordBackendFailure("BACKEND_UNREACHABLE")
	c.RecordBackendFailure("BACKEND_UNREACHABLE")
	c.RecordBackendFailure("BACKEND_MALFORMED_RESPONSE")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(c.backendFailures.WithLabelValues("BACKEND_UNREACHABLE")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.backendFailures.WithLabelValues("BACKEND_MALFORMED_RESPONSE")))
}

func TestCollector_AuditDrops(t *testing.T) {
	c := newTestCollector(t)

	c.RecordAuditDrop()
	c.RecordAuditDrop()
	assert.Equal(t, float64(2), testutil.ToFloat64(c.auditDropped))
}
