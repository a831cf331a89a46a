package bdispatch

import (
	"net/http"
	"slices"

	"github.com/advdv/bdispatch/internal/pathpattern"
)

// trie indexes routes by their number of segments. Within a bucket routes are tried in registration order
// and the first one whose literal segments all match wins.
type trie struct {
	buckets   [][]*route
	remainder []*route
}

func (t *trie) add(rt *route) {
	n := rt.pattern.Len()
	for len(t.buckets) <= n {
		t.buckets = append(t.buckets, nil)
	}

	t.buckets[n] = append(t.buckets[n], rt)
	if rt.matcher.remainder {
		t.remainder = append(t.remainder, rt)
	}
}

// lookup finds the route for 'segs'. Remainder routes are only considered for paths longer than their
// pattern, after no route matched exactly.
func (t *trie) lookup(segs []string) *route {
	if n := len(segs); n < len(t.buckets) {
		for _, rt := range t.buckets[n] {
			if rt.matcher.matches(segs) {
				return rt
			}
		}
	}

	for _, rt := range t.remainder {
		if rt.pattern.Len() < len(segs) && rt.matcher.matches(segs) {
			return rt
		}
	}

	return nil
}

// Dispatcher serves requests for a frozen set of routes. It is safe for concurrent use.
type Dispatcher struct {
	opts     options
	trie     trie
	reverser *Reverser
	routes   []RouteInfo
}

// Dispatch serves the request if a route matches its path and reports whether it did. When it returns
// false nothing was written to 'w' and the caller must respond, usually with a 404.
func (d *Dispatcher) Dispatch(w http.ResponseWriter, r *http.Request) bool {
	segs, err := pathpattern.Split(r.URL.EscapedPath())
	if err != nil {
		return false
	}

	rt := d.trie.lookup(segs)
	if rt == nil {
		return false
	}

	d.serve(w, r, rt, segs)

	return true
}

// ServeHTTP makes the dispatcher implement the http.Handler interface. Unhandled requests are passed to
// the not found handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !d.Dispatch(w, r) {
		d.opts.notFound.ServeHTTP(w, r)
	}
}

// Reverse returns the url based on the name and parameter values.
func (d *Dispatcher) Reverse(name string, vals ...string) (string, error) {
	return d.reverser.Reverse(name, vals...)
}

// Routes describes the routes in registration order.
func (d *Dispatcher) Routes() []RouteInfo { return slices.Clone(d.routes) }
