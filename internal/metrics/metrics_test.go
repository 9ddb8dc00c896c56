package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("ListObjects", "OK", 20*time.Millisecond)
	m.Observe("ListObjects", "OK", 30*time.Millisecond)
	m.Observe("ListObjects", "AccessDenied", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("ListObjects", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("ListObjects", "AccessDenied")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestObserve_NilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.Observe("ListBuckets", "OK", time.Second) })
}
