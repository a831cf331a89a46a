package bdispatch

import (
	"net/http"
	"slices"

	"github.com/advdv/bdispatch/internal/pathpattern"
)

type headerKV struct{ name, value string }

// route is a registered URL pattern with its operations, at most one per verb.
type route struct {
	pattern *pathpattern.Pattern
	matcher *matcher
	ops     map[string]*operation
	methods []string
	headers []headerKV
	gzip    *bool
	name    string
}

func (rt *route) clone() *route {
	c := *rt
	m := *rt.matcher
	c.matcher = &m
	c.ops = make(map[string]*operation, len(rt.ops))
	for method, op := range rt.ops {
		oc := *op
		oc.headers = slices.Clone(op.headers)
		oc.tags = slices.Clone(op.tags)
		c.ops[method] = &oc
	}

	c.methods = slices.Clone(rt.methods)
	c.headers = slices.Clone(rt.headers)

	return &c
}

// gzipEnabled returns whether record responses of the route are compressed for clients that accept it.
func (rt *route) gzipEnabled(def bool) bool {
	if rt.gzip != nil {
		return *rt.gzip
	}

	return def
}

func (rt *route) info() RouteInfo {
	ri := RouteInfo{
		Pattern:   rt.pattern.String(),
		Name:      rt.name,
		URL:       rt.matcher.schema,
		Wildcards: rt.pattern.Wildcards(),
		Remainder: rt.matcher.remainder,
		Headers:   http.Header{},
	}

	for _, h := range rt.headers {
		ri.Headers.Set(h.name, h.value)
	}

	for _, method := range rt.methods {
		ri.Operations = append(ri.Operations, rt.ops[method].info())
	}

	return ri
}

// operation is one verb's contract on a route.
type operation struct {
	method    string
	body      BodySpec
	query     *paramDecoder
	header    *paramDecoder
	returns   *Schema
	consume   OperationFunc
	sensitive bool
	comment   string
	headers   []headerKV
	tags      []string
	executor  Executor
}

func (op *operation) info() OperationInfo {
	oi := OperationInfo{
		Method:    op.method,
		Body:      op.body,
		Returns:   op.returns,
		Comment:   op.comment,
		Tags:      slices.Clone(op.tags),
		Sensitive: op.sensitive,
		Headers:   http.Header{},
	}

	if op.query != nil {
		oi.Query = op.query.schema
	}

	if op.header != nil {
		oi.Header = op.header.schema
	}

	for _, h := range op.headers {
		oi.Headers.Set(h.name, h.value)
	}

	return oi
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Pattern    string
	Name       string
	URL        *Schema
	Wildcards  []string
	Remainder  bool
	Headers    http.Header
	Operations []OperationInfo
}

// OperationInfo describes a registered operation.
type OperationInfo struct {
	Method    string
	Body      BodySpec
	Query     *Schema
	Header    *Schema
	Returns   *Schema
	Comment   string
	Tags      []string
	Sensitive bool
	Headers   http.Header
}

// RouteBuilder declares the operations of a route.
type RouteBuilder struct {
	reg   *Registry
	route *route
}

// Get declares the GET operation. GET requests never have their body decoded.
func (b *RouteBuilder) Get(query *Schema, fn OperationFunc) *OperationHandle {
	return b.add(http.MethodGet, NoBody(), query, fn)
}

// Post declares the POST operation.
func (b *RouteBuilder) Post(body BodySpec, query *Schema, fn OperationFunc) *OperationHandle {
	return b.add(http.MethodPost, body, query, fn)
}

// Put declares the PUT operation.
func (b *RouteBuilder) Put(body BodySpec, query *Schema, fn OperationFunc) *OperationHandle {
	return b.add(http.MethodPut, body, query, fn)
}

// Patch declares the PATCH operation.
func (b *RouteBuilder) Patch(body BodySpec, query *Schema, fn OperationFunc) *OperationHandle {
	return b.add(http.MethodPatch, body, query, fn)
}

// Delete declares the DELETE operation.
func (b *RouteBuilder) Delete(body BodySpec, query *Schema, fn OperationFunc) *OperationHandle {
	return b.add(http.MethodDelete, body, query, fn)
}

// AddHeader adds a header to every response of the route, OPTIONS included. Operation headers are applied
// after route headers.
func (b *RouteBuilder) AddHeader(name, value string) *RouteBuilder {
	b.route.headers = append(b.route.headers, headerKV{name, value})
	return b
}

// SetGzipCompress overrides whether record responses of this route are compressed.
func (b *RouteBuilder) SetGzipCompress(enabled bool) *RouteBuilder {
	b.route.gzip = &enabled
	return b
}

// Name names the route so urls can be built for it with [Dispatcher.Reverse].
func (b *RouteBuilder) Name(name string) *RouteBuilder {
	b.reg.reverser.Named(name, b.route.pattern.String())
	b.route.name = name

	return b
}

// MatchRemainder makes the trailing wildcard of the route also match paths with more segments. The
// remaining segments are bound to the wildcard, joined by a slash. Routes with the exact segment count
// are always tried first.
func (b *RouteBuilder) MatchRemainder() *RouteBuilder {
	if !b.route.matcher.TrailingWildcard() {
		panic("bdispatch: pattern " + b.route.pattern.String() + " does not end in a wildcard")
	}

	b.route.matcher.remainder = true

	return b
}

func (b *RouteBuilder) add(method string, body BodySpec, query *Schema, fn OperationFunc) *OperationHandle {
	if _, exists := b.route.ops[method]; exists {
		panic("bdispatch: " + method + " " + b.route.pattern.String() + " is already registered")
	}

	if fn == nil {
		panic("bdispatch: " + method + " " + b.route.pattern.String() + " has no operation")
	}

	b.reg.middlewares.captured = true

	op := &operation{
		method:  method,
		body:    body,
		query:   mustParamDecoder(query, "query", b.reg.opts.delim),
		consume: Wrap(fn, b.reg.middlewares.buffered...),
	}

	b.route.ops[method] = op
	b.route.methods = append(b.route.methods, method)

	return &OperationHandle{op: op, delim: b.reg.opts.delim}
}

// OperationHandle refines a declared operation.
type OperationHandle struct {
	op    *operation
	delim string
}

// DeclareReturnType declares the schema of the records the operation returns, for documentation.
func (h *OperationHandle) DeclareReturnType(s *Schema) *OperationHandle {
	h.op.returns = s
	return h
}

// Comment describes the operation.
func (h *OperationHandle) Comment(text string) *OperationHandle {
	h.op.comment = text
	return h
}

// AddHeader adds a header to every response of the operation.
func (h *OperationHandle) AddHeader(name, value string) *OperationHandle {
	h.op.headers = append(h.op.headers, headerKV{name, value})
	return h
}

// Headers declares the schema request headers are decoded into. Fields bind to the header named by their
// "header" tag.
func (h *OperationHandle) Headers(s *Schema) *OperationHandle {
	h.op.header = mustParamDecoder(s, "header", h.delim)
	return h
}

// Sensitive redacts the fields annotated as sensitive in the logged payloads of the operation. What is sent
// over the wire is unaffected.
func (h *OperationHandle) Sensitive() *OperationHandle {
	h.op.sensitive = true
	return h
}

// Tags groups the operation for documentation.
func (h *OperationHandle) Tags(tags ...string) *OperationHandle {
	h.op.tags = append(h.op.tags, tags...)
	return h
}

// WithExecutor makes the operation be invoked on 'exec' instead of the request goroutine.
func (h *OperationHandle) WithExecutor(exec Executor) *OperationHandle {
	h.op.executor = exec
	return h
}

// routeHeaders returns the declared headers of the route followed by those of the operation.
func routeHeaders(rt *route, op *operation) http.Header {
	h := http.Header{}
	for _, kv := range rt.headers {
		h.Set(kv.name, kv.value)
	}

	if op != nil {
		for _, kv := range op.headers {
			h.Set(kv.name, kv.value)
		}
	}

	return h
}
