package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/jsphweid/m300/compiler"
	"github.com/pkg/errors"
)

const (
	flushTimeout = 2 * time.Second
	compileOp    = "m300.compile"
)

// SentryMetrics reports compiles and errors to Sentry. The zero value is
// disabled and every method is a no-op.
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics initializes the Sentry client when dsn is set.
func NewSentryMetrics(dsn, environment string) (*SentryMetrics, error) {
	if dsn == "" {
		return &SentryMetrics{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize sentry")
	}
	return &SentryMetrics{enabled: true}, nil
}

func (m *SentryMetrics) Enabled() bool {
	return m != nil && m.enabled
}

// RecordCompile runs compile inside a span of the request transaction, so the
// span covers the compile itself.
func (m *SentryMetrics) RecordCompile(ctx context.Context, compile func(context.Context) (*compiler.Result, error)) (*compiler.Result, error) {
	if !m.Enabled() {
		return compile(ctx)
	}

	span := sentry.StartSpan(ctx, compileOp)
	defer span.Finish()

	res, err := compile(span.Context())
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetTag("success", "false")
		span.Description = fmt.Sprintf("Compile failed: %v", err)
		return res, err
	}

	span.SetTag("success", "true")
	span.SetTag("tempo", fmt.Sprintf("%.2f", res.Tempo))
	span.SetData("segments", len(res.Segments))
	span.SetData("bytes", len(res.Text))
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Compile: %d segments", len(res.Segments))
	return res, nil
}

// CaptureError sends err to the hub of the request, or the global one.
func (m *SentryMetrics) CaptureError(ctx context.Context, err error) {
	if !m.Enabled() || err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// Middleware wraps h so every request gets its own hub and transaction.
func (m *SentryMetrics) Middleware(h http.Handler) http.Handler {
	if !m.Enabled() {
		return h
	}
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(h)
}

func (m *SentryMetrics) Flush() {
	if m.Enabled() {
		sentry.Flush(flushTimeout)
	}
}
