package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/loanledger/internal/ingest"
)

func TestObserveIngest(t *testing.T) {
	m := New(true)

	m.ObserveIngest(10*time.Millisecond, false, 12, nil)
	m.ObserveIngest(time.Millisecond, true, 12, nil)
	m.ObserveIngest(time.Millisecond, false, 0, &ingest.Error{Kind: ingest.KindMissingRequiredColumns})
	m.ObserveIngest(time.Millisecond, false, 0, &ingest.Error{Kind: ingest.KindParseFailure})
	m.ObserveIngest(time.Millisecond, false, 0, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("missing_columns")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("parse_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.LedgerRecords))
}

func TestObserveEditAndFilter(t *testing.T) {
	m := New(true)

	m.ObserveEdit(nil)
	m.ObserveEdit(nil)
	m.ObserveEdit(errors.New("invalid"))
	m.ObserveFilter()
	m.ObserveView(7)
	m.ObserveExport()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Edits.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Edits.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilterChanges))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.ViewRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports))
}

func TestDisabledIsNoop(t *testing.T) {
	m := New(false)
	assert.False(t, m.IsEnabled())

	assert.NotPanics(t, func() {
		m.ObserveIngest(time.Second, false, 1, nil)
		m.ObserveEdit(nil)
		m.ObserveFilter()
		m.ObserveView(1)
		m.ObserveExport()
	})

	var nilMetrics *Metrics
	assert.False(t, nilMetrics.IsEnabled())
	assert.NotPanics(t, func() { nilMetrics.ObserveEdit(nil) })
}

func TestHandler(t *testing.T) {
	m := New(true)
	m.ObserveFilter()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "loanledger_filter_changes_total 1"))
}
