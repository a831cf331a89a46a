package bdispatch

import (
	"strings"

	"github.com/advdv/bdispatch/internal/pathpattern"
	"github.com/cockroachdb/errors"
)

// urlBind binds the wildcard at position 'pos' to a field of the url schema.
type urlBind struct {
	pos   int
	name  string
	field paramField
}

// matcher matches request paths against one pattern and extracts the wildcard values.
type matcher struct {
	pattern   *pathpattern.Pattern
	segs      []pathpattern.Segment
	schema    *Schema
	binds     []urlBind
	remainder bool
}

func newMatcher(pat *pathpattern.Pattern, schema *Schema) (*matcher, error) {
	m := &matcher{pattern: pat, segs: pat.Segments(), schema: schema}
	if schema == nil {
		return m, nil
	}

	for pos, seg := range m.segs {
		if !seg.Wildcard {
			continue
		}

		f, ok := schema.Field("url", seg.Name)
		if !ok {
			return nil, errors.Newf("pattern %q: wildcard %q has no field in %s", pat, seg.Name, schema.Name())
		}

		pf, err := newParamField(f)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", pat)
		}

		m.binds = append(m.binds, urlBind{pos: pos, name: seg.Name, field: pf})
	}

	return m, nil
}

// TrailingWildcard reports whether the pattern ends in a wildcard. Only such patterns can match the
// remainder of longer paths.
func (m *matcher) TrailingWildcard() bool { return m.pattern.TrailingWildcard() }

// matches reports whether every literal segment equals the incoming segment at the same position.
func (m *matcher) matches(segs []string) bool {
	switch {
	case len(segs) == len(m.segs):
	case m.remainder && len(segs) > len(m.segs):
	default:
		return false
	}

	for i, seg := range m.segs {
		if !seg.Wildcard && seg.Literal != segs[i] {
			return false
		}
	}

	return true
}

// parse binds the wildcard values of 'segs' into a new record of the url schema. It returns nil when there
// is no url schema. A remainder route binds all trailing segments, joined by a slash, to its last wildcard.
func (m *matcher) parse(segs []string) (any, error) {
	if m.schema == nil {
		return nil, nil
	}

	rec := m.schema.New()
	for i, b := range m.binds {
		raw, delim := segs[b.pos], "/"
		if m.remainder && i == len(m.binds)-1 && b.pos == len(m.segs)-1 {
			raw = strings.Join(segs[b.pos:], "/")
		}

		if err := b.field.set(rec, raw, delim); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "wildcard %q", b.name), ErrDecodeURL)
		}
	}

	return rec.Interface(), nil
}
