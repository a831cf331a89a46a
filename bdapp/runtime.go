package bdapp

import (
	"context"
	"net/http"

	"github.com/advdv/bdispatch"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
)

// Runtime provides access to app-scoped dependencies. Inject it into the constructors of operations
// instead of pulling dependencies from the context.
//
//	type Items struct {
//	    rt     *bdapp.Runtime[Env]
//	    dynamo *dynamodb.Client
//	}
//
//	func (h *Items) Get(ctx context.Context, _ *struct{}, url *ItemURL, _ *struct{}) (bdispatch.Result, error) {
//	    self, _ := h.rt.Reverse("item", url.ID)
//	    ...
//	}
type Runtime[E Environment] struct {
	env          E
	reg          *bdispatch.Registry
	secretReader SecretReader
	transport    http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	SecretReader SecretReader
	Transport    http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, reg *bdispatch.Registry, params RuntimeParams) *Runtime[E] {
	return &Runtime[E]{
		env:          env,
		reg:          reg,
		secretReader: params.SecretReader,
		transport:    params.Transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E { return r.env }

// Reverse returns the URL for a named route with the given wildcard values.
func (r *Runtime[E]) Reverse(name string, vals ...string) (string, error) {
	return r.reg.Reverse(name, vals...)
}

// Secret retrieves a secret value from AWS Secrets Manager.
//
// If jsonPath is provided, the secret is parsed as JSON and the path is extracted using gjson syntax
// (e.g. "database.password"). Secrets are cached but read per call so rotation works without a redeploy.
func (r *Runtime[E]) Secret(ctx context.Context, secretID string, jsonPath ...string) (string, error) {
	if r.secretReader == nil {
		return "", errors.New("bdapp: secret reader not configured")
	}

	return readSecret(ctx, r.secretReader, secretID, jsonPath...)
}

// NewRequest starts an outbound request to 'baseURL'. The request is traced as a child of the span in
// the context it is eventually sent with.
func (r *Runtime[E]) NewRequest(baseURL string) *requests.Builder {
	t := r.transport
	if t == nil {
		t = http.DefaultTransport
	}

	return newRequestBuilder(t, baseURL)
}
