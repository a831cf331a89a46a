package bdapp

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	serviceVersion() string
	readinessCheckPath() string
	logLevel() zapcore.Level
	otelExporter() string
	awsRegion() string
	primaryRegion() string
	requestTimeout() time.Duration
	tempDir() string
	queryDelimiter() string
	strictQuery() bool
	badRequestOnMalformed() bool
	enableH2C() bool
	openAPIPath() string
}

// BaseEnvironment contains the environment variables every service reads. Embed this in your custom
// environment struct.
type BaseEnvironment struct {
	Port               int           `env:"BD_PORT" envDefault:"8080"`
	ServiceName        string        `env:"BD_SERVICE_NAME,required"`
	ServiceVersion     string        `env:"BD_SERVICE_VERSION" envDefault:"0.0.0"`
	ReadinessCheckPath string        `env:"BD_READINESS_CHECK_PATH" envDefault:"/health"`
	LogLevel           zapcore.Level `env:"BD_LOG_LEVEL" envDefault:"info"`
	OtelExporter       string        `env:"BD_OTEL_EXPORTER" envDefault:"stdout"`
	AWSRegion          string        `env:"AWS_REGION,required"`
	// PrimaryRegion is the region clients registered with ForPrimaryRegion target. It defaults to the
	// local region when empty.
	PrimaryRegion  string        `env:"BD_PRIMARY_REGION"`
	RequestTimeout time.Duration `env:"BD_REQUEST_TIMEOUT" envDefault:"30s"`
	// TempDir is where file request bodies are streamed to, the os temp dir when empty.
	TempDir        string `env:"BD_TEMP_DIR"`
	QueryDelimiter string `env:"BD_QUERY_DELIMITER" envDefault:","`
	StrictQuery    bool   `env:"BD_STRICT_QUERY"`
	// BadRequestOnMalformed answers malformed url, query and header values with a 400 instead of a 500.
	BadRequestOnMalformed bool `env:"BD_BAD_REQUEST_ON_MALFORMED"`
	EnableH2C             bool `env:"BD_ENABLE_H2C"`
	// OpenAPIPath serves the OpenAPI description of the service when set.
	OpenAPIPath string `env:"BD_OPENAPI_PATH"`
}

func (e BaseEnvironment) port() int                     { return e.Port }
func (e BaseEnvironment) serviceName() string           { return e.ServiceName }
func (e BaseEnvironment) serviceVersion() string        { return e.ServiceVersion }
func (e BaseEnvironment) readinessCheckPath() string    { return e.ReadinessCheckPath }
func (e BaseEnvironment) logLevel() zapcore.Level       { return e.LogLevel }
func (e BaseEnvironment) otelExporter() string          { return e.OtelExporter }
func (e BaseEnvironment) awsRegion() string             { return e.AWSRegion }
func (e BaseEnvironment) requestTimeout() time.Duration { return e.RequestTimeout }
func (e BaseEnvironment) tempDir() string               { return e.TempDir }
func (e BaseEnvironment) queryDelimiter() string        { return e.QueryDelimiter }
func (e BaseEnvironment) strictQuery() bool             { return e.StrictQuery }
func (e BaseEnvironment) badRequestOnMalformed() bool   { return e.BadRequestOnMalformed }
func (e BaseEnvironment) enableH2C() bool               { return e.EnableH2C }
func (e BaseEnvironment) openAPIPath() string           { return e.OpenAPIPath }

func (e BaseEnvironment) primaryRegion() string {
	if e.PrimaryRegion == "" {
		return e.AWSRegion
	}

	return e.PrimaryRegion
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}

		if e.requestTimeout() <= 0 {
			return e, errors.Newf("BD_REQUEST_TIMEOUT must be positive, got: %s", e.requestTimeout())
		}

		return e, nil
	}
}
