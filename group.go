package bdispatch

import (
	"github.com/advdv/bdispatch/internal/pathpattern"
)

// Group registers routes below a shared prefix.
type Group struct {
	reg    *Registry
	prefix string
}

// Group returns a group that prefixes every pattern it registers with 'prefix'.
func (g *Registry) Group(prefix string) *Group {
	if _, err := pathpattern.Parse(prefix); err != nil {
		panic("bdispatch: " + err.Error())
	}

	return &Group{reg: g, prefix: prefix}
}

// Register registers the prefixed pattern, see [Registry.Register].
func (gr *Group) Register(pattern string, urlSchema *Schema) *RouteBuilder {
	return gr.reg.Register(pathpattern.Join(gr.prefix, pattern), urlSchema)
}

// Group returns a nested group.
func (gr *Group) Group(prefix string) *Group {
	return gr.reg.Group(pathpattern.Join(gr.prefix, prefix))
}

// Prefix returns the full prefix of the group.
func (gr *Group) Prefix() string { return gr.prefix }
