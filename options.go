package bdispatch

import (
	"net/http"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Option configures a [Registry] and the [Dispatcher] it builds.
type Option func(*options)

type options struct {
	logs        Logger
	codec       Codec
	compressor  Compressor
	tempDir     string
	delim       string
	strictQuery bool
	badRequest  bool
	gzip        bool
	notFound    http.Handler
}

func defaultOptions() options {
	return options{
		logs:       NewZapLogger(zap.NewNop()),
		codec:      JSONCodec{},
		compressor: GzipCompressor(gzip.DefaultCompression),
		delim:      ",",
		gzip:       true,
		notFound:   http.NotFoundHandler(),
	}
}

// WithLogger sets the logger that exchanges are logged to.
func WithLogger(l Logger) Option { return func(o *options) { o.logs = l } }

// WithCodec sets the codec typed bodies and records are decoded and encoded with.
func WithCodec(c Codec) Option { return func(o *options) { o.codec = c } }

// WithCompressor sets the compressor for clients that accept its encoding.
func WithCompressor(c Compressor) Option { return func(o *options) { o.compressor = c } }

// WithTempDir sets the directory file bodies are written to. It defaults to [os.TempDir].
func WithTempDir(dir string) Option { return func(o *options) { o.tempDir = dir } }

// WithQueryDelimiter sets the delimiter multi valued query parameters are split on.
func WithQueryDelimiter(delim string) Option { return func(o *options) { o.delim = delim } }

// WithStrictQueryParams rejects query parameters the query schema does not declare with a 400 instead of
// logging and ignoring them.
func WithStrictQueryParams(strict bool) Option { return func(o *options) { o.strictQuery = strict } }

// WithBadRequestOnMalformedParams answers malformed url, query and header values with a 400 and the decode
// failure as the reason. By default they are a 500 like any other failure outside the operation.
func WithBadRequestOnMalformedParams(enabled bool) Option {
	return func(o *options) { o.badRequest = enabled }
}

// WithGzip sets whether routes compress record responses by default.
func WithGzip(enabled bool) Option { return func(o *options) { o.gzip = enabled } }

// WithNotFoundHandler sets the handler [Dispatcher.ServeHTTP] falls back to for unhandled requests.
func WithNotFoundHandler(h http.Handler) Option { return func(o *options) { o.notFound = h } }
