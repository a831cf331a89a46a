package bdapptest

import (
	"strconv"
	"testing"
	"time"
)

// Env provides a chainable builder for setting [bdapp.BaseEnvironment] env vars via t.Setenv. Create one
// with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [bdapp.BaseEnvironment] env vars to test defaults. Port is required because each
// test must use a unique port to avoid collisions.
//
// Defaults:
//   - BD_SERVICE_NAME: "test"
//   - BD_READINESS_CHECK_PATH: "/health"
//   - BD_OTEL_EXPORTER: "none"
//   - BD_REQUEST_TIMEOUT: "5s"
//   - AWS_REGION: "us-east-1"
//   - BD_PRIMARY_REGION: "eu-west-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("BD_PORT", strconv.Itoa(port))
	t.Setenv("BD_SERVICE_NAME", "test")
	t.Setenv("BD_READINESS_CHECK_PATH", "/health")
	t.Setenv("BD_OTEL_EXPORTER", "none")
	t.Setenv("BD_REQUEST_TIMEOUT", "5s")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("BD_PRIMARY_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	return &Env{t: t}
}

func (e *Env) set(key, value string) *Env {
	e.t.Helper()
	e.t.Setenv(key, value)

	return e
}

// ServiceName overrides BD_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env { return e.set("BD_SERVICE_NAME", name) }

// ReadinessCheckPath overrides BD_READINESS_CHECK_PATH.
func (e *Env) ReadinessCheckPath(path string) *Env { return e.set("BD_READINESS_CHECK_PATH", path) }

// AWSRegion overrides AWS_REGION.
func (e *Env) AWSRegion(region string) *Env { return e.set("AWS_REGION", region) }

// PrimaryRegion overrides BD_PRIMARY_REGION.
func (e *Env) PrimaryRegion(region string) *Env { return e.set("BD_PRIMARY_REGION", region) }

// RequestTimeout overrides BD_REQUEST_TIMEOUT.
func (e *Env) RequestTimeout(d time.Duration) *Env { return e.set("BD_REQUEST_TIMEOUT", d.String()) }

// OpenAPIPath overrides BD_OPENAPI_PATH.
func (e *Env) OpenAPIPath(path string) *Env { return e.set("BD_OPENAPI_PATH", path) }

// StrictQuery overrides BD_STRICT_QUERY.
func (e *Env) StrictQuery(strict bool) *Env {
	return e.set("BD_STRICT_QUERY", strconv.FormatBool(strict))
}

// BadRequestOnMalformed overrides BD_BAD_REQUEST_ON_MALFORMED.
func (e *Env) BadRequestOnMalformed(enabled bool) *Env {
	return e.set("BD_BAD_REQUEST_ON_MALFORMED", strconv.FormatBool(enabled))
}

// EnableH2C overrides BD_ENABLE_H2C.
func (e *Env) EnableH2C(enabled bool) *Env {
	return e.set("BD_ENABLE_H2C", strconv.FormatBool(enabled))
}
