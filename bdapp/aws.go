package bdapp

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Primary wraps an AWS client for the primary deployment region. Operations inject it to make the
// region they target explicit in their dependencies:
//
//	bdapp.WithAWSClient(func(cfg aws.Config) *bdapp.Primary[ssm.Client] {
//	    return bdapp.NewPrimary(ssm.NewFromConfig(cfg))
//	}, bdapp.ForPrimaryRegion())
type Primary[T any] struct {
	Client *T
}

// NewPrimary creates a Primary wrapper for an AWS client configured for the primary region.
func NewPrimary[T any](client *T) *Primary[T] {
	return &Primary[T]{Client: client}
}

// InRegion wraps an AWS client configured for a specific fixed region.
//
//	bdapp.WithAWSClient(func(cfg aws.Config) *bdapp.InRegion[sqs.Client] {
//	    return bdapp.NewInRegion(sqs.NewFromConfig(cfg), "eu-west-1")
//	}, bdapp.ForRegion("eu-west-1"))
type InRegion[T any] struct {
	Client *T
	Region string
}

// NewInRegion creates an InRegion wrapper for an AWS client configured for a fixed region.
func NewInRegion[T any](client *T, region string) *InRegion[T] {
	return &InRegion[T]{Client: client, Region: region}
}

type clientOptions struct {
	region Region
}

// ClientOption configures AWS client registration.
type ClientOption func(*clientOptions)

// ForPrimaryRegion configures the client to use BD_PRIMARY_REGION.
func ForPrimaryRegion() ClientOption {
	return func(o *clientOptions) { o.region = PrimaryRegion() }
}

// ForRegion configures the client to use a specific fixed region.
func ForRegion(region string) ClientOption {
	return func(o *clientOptions) { o.region = FixedRegion(region) }
}

const awsConfigTimeout = 10 * time.Second

// NewAWSConfig loads the default AWS SDK v2 configuration and instruments it, so every AWS call made
// while handling a request becomes a child span of that request.
func NewAWSConfig(ctx context.Context, tp trace.TracerProvider, prop propagation.TextMapPropagator) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to load aws config")
	}

	otelaws.AppendMiddlewares(&cfg.APIOptions,
		otelaws.WithTracerProvider(tp),
		otelaws.WithTextMapPropagator(prop),
	)

	return cfg, nil
}

func provideAWSConfig(tp trace.TracerProvider, prop propagation.TextMapPropagator) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer cancel()

	return NewAWSConfig(ctx, tp, prop)
}

// resolveClientConfig copies 'cfg' with the region selected by 'opts'.
func resolveClientConfig(cfg aws.Config, env Environment, opts ...ClientOption) aws.Config {
	options := &clientOptions{region: LocalRegion()}
	for _, opt := range opts {
		opt(options)
	}

	awsCfg := cfg.Copy()
	if r := options.region.resolve(env); r != "" {
		awsCfg.Region = r
	}

	return awsCfg
}
