package bdispatch

import (
	"github.com/advdv/bdispatch/internal/pathpattern"
	"github.com/samber/lo"
)

// Registry collects routes at startup. Once all routes are registered, [Registry.Build] freezes them into a
// [Dispatcher] that serves requests. Registering after Build does not affect dispatchers built before.
type Registry struct {
	opts        options
	reverser    *Reverser
	routes      []*route
	byPattern   map[string]*route
	middlewares struct {
		captured bool
		buffered []Middleware
	}
}

// NewRegistry creates a new Registry.
func NewRegistry(opts ...Option) *Registry {
	reg := &Registry{
		opts:      defaultOptions(),
		reverser:  NewReverser(),
		byPattern: map[string]*route{},
	}

	for _, opt := range opts {
		opt(&reg.opts)
	}

	return reg
}

// Use allows providing of middleware that wraps every operation.
func (g *Registry) Use(mw ...Middleware) {
	g.ensureNoUseAfterRegister()
	g.middlewares.buffered = append(g.middlewares.buffered, mw...)
}

// Register declares the route for 'pattern'. Wildcards, written as "{name}", are bound to the field of
// 'urlSchema' that is named the same by its "url" or "json" tag. Registering the same pattern again returns
// the same builder, but it panics when the url schema differs.
func (g *Registry) Register(pattern string, urlSchema *Schema) *RouteBuilder {
	if rt, ok := g.byPattern[pattern]; ok {
		if !sameSchema(rt.matcher.schema, urlSchema) {
			panic("bdispatch: " + pattern + " is already registered with url schema " +
				schemaName(rt.matcher.schema) + ", got: " + schemaName(urlSchema))
		}

		return &RouteBuilder{reg: g, route: rt}
	}

	pat, err := pathpattern.Parse(pattern)
	if err != nil {
		panic("bdispatch: " + err.Error())
	}

	m, err := newMatcher(pat, urlSchema)
	if err != nil {
		panic("bdispatch: " + err.Error())
	}

	rt := &route{pattern: pat, matcher: m, ops: map[string]*operation{}}
	g.routes = append(g.routes, rt)
	g.byPattern[pattern] = rt

	return &RouteBuilder{reg: g, route: rt}
}

// Routes describes the registered routes in registration order.
func (g *Registry) Routes() []RouteInfo {
	return lo.Map(g.routes, func(rt *route, _ int) RouteInfo { return rt.info() })
}

// Reverse builds the url of the route named 'name' from the values of its wildcards.
func (g *Registry) Reverse(name string, vals ...string) (string, error) {
	return g.reverser.Reverse(name, vals...)
}

// Build freezes the registered routes into a dispatcher. Every operation is logged as it is frozen.
func (g *Registry) Build() *Dispatcher {
	d := &Dispatcher{opts: g.opts, reverser: g.reverser.clone()}
	for _, rt := range g.routes {
		frozen := rt.clone()
		d.trie.add(frozen)
		d.routes = append(d.routes, frozen.info())

		for _, method := range frozen.methods {
			g.opts.logs.LogRegistered(frozen.pattern.String(), frozen.ops[method].info())
		}
	}

	return d
}

func (g *Registry) ensureNoUseAfterRegister() {
	if g.middlewares.captured {
		panic("bdispatch: cannot call Use() after registering operations")
	}
}
