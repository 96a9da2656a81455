package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaced(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Replaced("remote", 5, 4)
	m.Replaced("local", 3, 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.records))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.markers))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.replacements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mode.WithLabelValues("local")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.mode.WithLabelValues("remote")))
}

func TestSnapshotSaved(t *testing.T) {
	m := New(nil)
	m.SnapshotSaved(nil)
	m.SnapshotSaved(nil)
	m.SnapshotSaved(errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.snapshots.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshots.WithLabelValues("error")))
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.Replaced("remote", 7, 6)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jembatan_records 7")
	assert.Contains(t, rec.Body.String(), `jembatan_mode{mode="remote"} 1`)
}
