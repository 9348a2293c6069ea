package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/jsphweid/m300/compiler"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledWithoutDSN(t *testing.T) {
	m, err := NewSentryMetrics("", "test")
	require.NoError(t, err)
	assert.False(t, m.Enabled())

	// no-ops, must not panic
	_, err = m.RecordCompile(context.Background(), func(context.Context) (*compiler.Result, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	m.CaptureError(context.Background(), errors.New("boom"))
	m.Flush()

	var nilMetrics *SentryMetrics
	assert.False(t, nilMetrics.Enabled())
}

func TestRecordCompileSpansTheCompile(t *testing.T) {
	m := &SentryMetrics{enabled: true}
	want := &compiler.Result{Text: "x", Tempo: 1}

	got, err := m.RecordCompile(context.Background(), func(ctx context.Context) (*compiler.Result, error) {
		span := sentry.SpanFromContext(ctx)
		require.NotNil(t, span)
		assert.Equal(t, compileOp, span.Op)
		assert.True(t, span.EndTime.IsZero(), "span finished before the compile ran")
		return want, nil
	})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestMiddlewarePassThrough(t *testing.T) {
	m := &SentryMetrics{}
	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestInvalidDSN(t *testing.T) {
	_, err := NewSentryMetrics("not a dsn", "test")
	assert.Error(t, err)
}
