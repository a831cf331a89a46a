package bdapp

import (
	"context"
	"net/http"

	"github.com/advdv/bdispatch"
	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	HealthCheck     HealthCheck
	DispatchOptions []bdispatch.Option
	Middleware      []bdispatch.Middleware
	FxOptions       []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

type runtimeProviderParams[E Environment] struct {
	fx.In

	Env          E
	Registry     *bdispatch.Registry
	SecretReader SecretReader
	Transport    http.RoundTripper
}

// WithAWSClient registers an AWS SDK v2 client for dependency injection. By default clients target
// AWS_REGION:
//
//	bdapp.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
//	    return dynamodb.NewFromConfig(cfg)
//	})
func WithAWSClient[T any](factory func(aws.Config) T, opts ...ClientOption) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, AWSClientProvider(factory, opts...))
	}
}

// AWSClientProvider creates an fx.Option that provides an AWS client for injection. The factory receives
// an aws.Config with the region already configured.
func AWSClientProvider[T any](factory func(aws.Config) T, opts ...ClientOption) fx.Option {
	return fx.Provide(func(cfg aws.Config, env Environment) T {
		return factory(resolveClientConfig(cfg, env, opts...))
	})
}

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthCheck sets the readiness check. Without one the readiness path always answers 200.
func WithHealthCheck(check HealthCheck) Option {
	return func(c *AppConfig) {
		c.HealthCheck = check
	}
}

// WithDispatchOptions configures the registry beyond what the environment configures.
func WithDispatchOptions(opts ...bdispatch.Option) Option {
	return func(c *AppConfig) {
		c.DispatchOptions = append(c.DispatchOptions, opts...)
	}
}

// WithMiddleware wraps every operation of the app with 'mw'.
func WithMiddleware(mw ...bdispatch.Middleware) Option {
	return func(c *AppConfig) {
		c.Middleware = append(c.Middleware, mw...)
	}
}

// FxOptions returns the dependency graph of an app. The routing function can request any type that is
// provided, at minimum it takes the *bdispatch.Registry to register operations on.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 16+len(cfg.FxOptions))
	baseOpts = append(baseOpts,
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewHTTPTransport),
		fx.Provide(NewHTTPClient),
		fx.Provide(provideAWSConfig),
		fx.Provide(func(cfg aws.Config) (SecretReader, error) {
			return NewAWSSecretReader(cfg)
		}),
		fx.Provide(NewRegistry),
		fx.Provide(NewServer),
		fx.Provide(func(p runtimeProviderParams[E]) *Runtime[E] {
			return NewRuntime(p.Env, p.Registry, RuntimeParams{
				SecretReader: p.SecretReader,
				Transport:    p.Transport,
			})
		}),
		fx.Invoke(startServerHook),
		fx.Invoke(routing),
	)

	return append(baseOpts, cfg.FxOptions...)
}

// NewApp creates a batteries-included app with dependency injection.
//
//	bdapp.NewApp[Env](func(reg *bdispatch.Registry, h *Items) {
//	    reg.Register("/items/{id}", bdispatch.SchemaOf[ItemURL]()).Name("item").
//	        Get(nil, bdispatch.Typed(h.Get))
//	},
//	    bdapp.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
//	        return dynamodb.NewFromConfig(cfg)
//	    }),
//	    bdapp.WithFx(fx.Provide(NewItems)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{app: fx.New(FxOptions[E](routing, opts...)...)}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application and blocks until 'ctx' is done, then stops it.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
