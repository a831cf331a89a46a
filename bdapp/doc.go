// Package bdapp provides a batteries-included service around a [bdispatch.Registry].
//
// # Overview
//
// bdapp handles the boilerplate of running a dispatcher as a service: environment parsing, structured
// logging, OpenTelemetry tracing, AWS SDK clients, secrets and graceful shutdown. A complete service is
// created in a single call:
//
//	bdapp.NewApp[Env](func(reg *bdispatch.Registry, h *Items) {
//	    reg.Register("/items", nil).Get(nil, bdispatch.Sync(h.List))
//	    reg.Register("/items/{id}", bdispatch.SchemaOf[ItemURL]()).Name("item").
//	        Get(nil, bdispatch.Typed(h.Get))
//	},
//	    bdapp.WithAWSClient(func(cfg aws.Config) *dynamodb.Client { return dynamodb.NewFromConfig(cfg) }),
//	    bdapp.WithFx(fx.Provide(NewItems)),
//	).Run()
//
// The registry is frozen into a dispatcher when the app starts, after every routing function ran.
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    bdapp.BaseEnvironment
//	    MainTableName string `env:"MAIN_TABLE_NAME,required"`
//	}
//
// BaseEnvironment reads the following variables:
//
//	| Variable                | Required | Default | Description                                        |
//	|-------------------------|----------|---------|----------------------------------------------------|
//	| BD_SERVICE_NAME         | Yes      | -       | Service name for logging, tracing and OpenAPI      |
//	| AWS_REGION              | Yes      | -       | AWS region (set automatically by Lambda)           |
//	| BD_PORT                 | No       | 8080    | Port the HTTP server listens on                    |
//	| BD_SERVICE_VERSION      | No       | 0.0.0   | Version reported in traces and OpenAPI             |
//	| BD_READINESS_CHECK_PATH | No       | /health | Readiness check path                               |
//	| BD_LOG_LEVEL            | No       | info    | Log level, debug logs full payloads                |
//	| BD_OTEL_EXPORTER        | No       | stdout  | Trace exporter: "stdout", "xrayudp" or "none"      |
//	| BD_PRIMARY_REGION       | No       | -       | Region of clients registered for the primary region|
//	| BD_REQUEST_TIMEOUT      | No       | 30s     | Time a request may take before it is abandoned     |
//	| BD_TEMP_DIR             | No       | -       | Directory file request bodies are streamed to      |
//	| BD_QUERY_DELIMITER      | No       | ,       | Separator of multi-valued query parameters         |
//	| BD_STRICT_QUERY         | No       | false   | Answer unknown query parameters with a 400         |
//	| BD_BAD_REQUEST_ON_MALFORMED | No   | false   | Answer malformed url/query/header values with 400  |
//	| BD_ENABLE_H2C           | No       | false   | Serve HTTP/2 without TLS                           |
//	| BD_OPENAPI_PATH         | No       | -       | Serve the OpenAPI description on this path         |
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into the constructors of
// operations: the environment, reverse routing, secrets and an instrumented HTTP client.
//
// # Request Context
//
// Operations receive the request context. [Log] returns a logger correlated with the trace and the
// request id, [Span] the active span and [LWA] the Lambda context when running behind the Lambda Web
// Adapter. Every request context has a deadline, see [TimeoutConfig].
package bdapp
