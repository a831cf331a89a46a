package bdispatch

import (
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ExchangeInfo identifies one request/response exchange in the logs.
type ExchangeInfo struct {
	ID     string
	Method string
	URI    string
	Route  string
}

func (x ExchangeInfo) fields() []zap.Field {
	return []zap.Field{
		zap.String("request_id", x.ID),
		zap.String("method", x.Method),
		zap.String("uri", x.URI),
		zap.String("route", x.Route),
	}
}

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogRegistered(pattern string, op OperationInfo)
	LogReceived(x ExchangeInfo, body string)
	LogResponded(x ExchangeInfo, status int, body string)
	LogFailure(x ExchangeInfo, status int, err error)
	LogCleanupError(x ExchangeInfo, path string, err error)
	LogUnknownParam(x ExchangeInfo, name string)
	LogAbandoned(x ExchangeInfo, err error)

	// Verbose reports whether payloads are logged in full. Files sent by operations are kept by default
	// while verbose.
	Verbose() bool
}

type zapLogger struct{ logs *zap.Logger }

// NewZapLogger returns a [Logger] that writes to 'l'. Exchanges are logged at info level, failures at warn or
// error level depending on the status. Payloads are truncated unless debug is enabled.
func NewZapLogger(l *zap.Logger) Logger {
	return zapLogger{l.Named("bdispatch")}
}

func (l zapLogger) LogRegistered(pattern string, op OperationInfo) {
	l.logs.Info("api description",
		zap.String("url", pattern),
		zap.String("verb", op.Method),
		zap.String("body", op.Body.Kind.String()),
		zap.String("body_schema", schemaName(op.Body.Schema)),
		zap.String("query_schema", schemaName(op.Query)),
		zap.String("header_schema", schemaName(op.Header)),
		zap.String("returns", schemaName(op.Returns)),
		zap.String("comment", op.Comment),
		zap.Strings("tags", op.Tags))
}

func (l zapLogger) LogReceived(x ExchangeInfo, body string) {
	l.logs.Info("request received", append(x.fields(), zap.String("body", body))...)
}

func (l zapLogger) LogResponded(x ExchangeInfo, status int, body string) {
	l.logs.Info("response committed", append(x.fields(), zap.Int("status", status), zap.String("body", body))...)
}

func (l zapLogger) LogFailure(x ExchangeInfo, status int, err error) {
	fields := append(x.fields(), zap.Int("status", status), zap.Error(err))
	if status >= int(CodeInternalServerError) {
		l.logs.Error("request failed", fields...)
		return
	}

	l.logs.Warn("request failed", fields...)
}

func (l zapLogger) LogCleanupError(x ExchangeInfo, path string, err error) {
	l.logs.Warn("failed to remove file", append(x.fields(), zap.String("path", path), zap.Error(err))...)
}

func (l zapLogger) LogUnknownParam(x ExchangeInfo, name string) {
	l.logs.Info("ignoring unknown query parameter", append(x.fields(), zap.String("name", name))...)
}

func (l zapLogger) LogAbandoned(x ExchangeInfo, err error) {
	l.logs.Warn("exchange abandoned before commit", append(x.fields(), zap.Error(err))...)
}

func (l zapLogger) Verbose() bool {
	return l.logs.Core().Enabled(zapcore.DebugLevel)
}

// TestLogger counts the logged events and forwards them to the test log.
type TestLogger struct {
	tb testing.TB

	IsVerbose bool

	NumLogRegistered    int64
	NumLogReceived      int64
	NumLogResponded     int64
	NumLogFailure       int64
	NumLogCleanupError  int64
	NumLogUnknownParam  int64
	NumLogAbandoned     int64
	LastFailureStatus   int64
	LastRespondedStatus int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogRegistered(pattern string, op OperationInfo) {
	atomic.AddInt64(&l.NumLogRegistered, 1)
	l.tb.Logf("bdispatch: registered %s %s", op.Method, pattern)
}

func (l *TestLogger) LogReceived(x ExchangeInfo, body string) {
	atomic.AddInt64(&l.NumLogReceived, 1)
	l.tb.Logf("bdispatch: %s %s received: %s", x.Method, x.URI, body)
}

func (l *TestLogger) LogResponded(x ExchangeInfo, status int, body string) {
	atomic.AddInt64(&l.NumLogResponded, 1)
	atomic.StoreInt64(&l.LastRespondedStatus, int64(status))
	l.tb.Logf("bdispatch: %s %s responded %d: %s", x.Method, x.URI, status, body)
}

func (l *TestLogger) LogFailure(x ExchangeInfo, status int, err error) {
	atomic.AddInt64(&l.NumLogFailure, 1)
	atomic.StoreInt64(&l.LastFailureStatus, int64(status))
	l.tb.Logf("bdispatch: %s %s failed with %d: %s", x.Method, x.URI, status, err)
}

func (l *TestLogger) LogCleanupError(x ExchangeInfo, path string, err error) {
	atomic.AddInt64(&l.NumLogCleanupError, 1)
	l.tb.Logf("bdispatch: %s %s failed to remove %s: %s", x.Method, x.URI, path, err)
}

func (l *TestLogger) LogUnknownParam(x ExchangeInfo, name string) {
	atomic.AddInt64(&l.NumLogUnknownParam, 1)
	l.tb.Logf("bdispatch: %s %s unknown query parameter: %s", x.Method, x.URI, name)
}

func (l *TestLogger) LogAbandoned(x ExchangeInfo, err error) {
	atomic.AddInt64(&l.NumLogAbandoned, 1)
	l.tb.Logf("bdispatch: %s %s abandoned: %s", x.Method, x.URI, err)
}

func (l *TestLogger) Verbose() bool { return l.IsVerbose }

var (
	_ Logger = &TestLogger{}
	_ Logger = zapLogger{}
)
