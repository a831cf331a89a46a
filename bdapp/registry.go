package bdapp

import (
	"github.com/advdv/bdispatch"
	"go.uber.org/zap"
)

// NewRegistry creates the registry operations are registered on. Its options are read from the
// environment, options passed with WithDispatchOptions are applied after them.
func NewRegistry(env Environment, logger *zap.Logger, cfg AppConfig) *bdispatch.Registry {
	opts := []bdispatch.Option{
		bdispatch.WithLogger(newDispatchLogger(logger)),
		bdispatch.WithQueryDelimiter(env.queryDelimiter()),
		bdispatch.WithStrictQueryParams(env.strictQuery()),
		bdispatch.WithBadRequestOnMalformedParams(env.badRequestOnMalformed()),
	}

	if dir := env.tempDir(); dir != "" {
		opts = append(opts, bdispatch.WithTempDir(dir))
	}

	reg := bdispatch.NewRegistry(append(opts, cfg.DispatchOptions...)...)
	if len(cfg.Middleware) > 0 {
		reg.Use(cfg.Middleware...)
	}

	return reg
}
