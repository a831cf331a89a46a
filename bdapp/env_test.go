package bdapp_test

import (
	"os"
	"testing"
	"time"

	"github.com/advdv/bdispatch/bdapp"
	"github.com/advdv/bdispatch/bdapp/bdapptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("BD_SERVICE_NAME", "svc")
		t.Setenv("AWS_REGION", "eu-west-1")

		env, err := bdapp.ParseEnv[bdapp.BaseEnvironment]()()
		require.NoError(t, err)
		assert.Equal(t, 8080, env.Port)
		assert.Equal(t, "/health", env.ReadinessCheckPath)
		assert.Equal(t, zapcore.InfoLevel, env.LogLevel)
		assert.Equal(t, bdapp.ExporterStdout, env.OtelExporter)
		assert.Equal(t, 30*time.Second, env.RequestTimeout)
		assert.Equal(t, ",", env.QueryDelimiter)
		assert.False(t, env.StrictQuery)
		assert.False(t, env.BadRequestOnMalformed)
		assert.False(t, env.EnableH2C)
		assert.Empty(t, env.OpenAPIPath)
	})

	t.Run("test defaults and overrides", func(t *testing.T) {
		bdapptest.SetBaseEnv(t, 18090).
			ServiceName("other").
			RequestTimeout(2 * time.Second).
			StrictQuery(true).
			BadRequestOnMalformed(true).
			OpenAPIPath("/openapi.json")
		t.Setenv("BD_LOG_LEVEL", "debug")

		env, err := bdapp.ParseEnv[TestEnv]()()
		require.NoError(t, err)
		assert.Equal(t, 18090, env.Port)
		assert.Equal(t, "other", env.ServiceName)
		assert.Equal(t, zapcore.DebugLevel, env.LogLevel)
		assert.Equal(t, 2*time.Second, env.RequestTimeout)
		assert.True(t, env.StrictQuery)
		assert.True(t, env.BadRequestOnMalformed)
		assert.Equal(t, "/openapi.json", env.OpenAPIPath)
		assert.Equal(t, "test-table", env.MainTableName)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Setenv("BD_SERVICE_NAME", "svc")
		t.Setenv("AWS_REGION", "eu-west-1")
		require.NoError(t, os.Unsetenv("BD_SERVICE_NAME"))

		_, err := bdapp.ParseEnv[bdapp.BaseEnvironment]()()
		require.ErrorContains(t, err, "BD_SERVICE_NAME")
	})

	t.Run("non-positive request timeout", func(t *testing.T) {
		bdapptest.SetBaseEnv(t, 18091).RequestTimeout(0)

		_, err := bdapp.ParseEnv[bdapp.BaseEnvironment]()()
		require.ErrorContains(t, err, "BD_REQUEST_TIMEOUT must be positive")
	})
}
