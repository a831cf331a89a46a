// Package pathpattern parses the URL patterns used for route registration. A pattern is a
// slash separated list of segments where every segment is either a literal or a single
// segment wildcard written as "{name}".
package pathpattern

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// Segment is one element of a parsed pattern.
type Segment struct {
	Literal  string
	Wildcard bool
	Name     string
}

// Pattern is a parsed URL pattern.
type Pattern struct {
	raw  string
	segs []Segment
}

// Parse parses 's' into a pattern.
func Parse(s string) (*Pattern, error) {
	if !strings.HasPrefix(s, "/") {
		return nil, errors.Newf("pattern %q must start with a slash", s)
	}

	pat := &Pattern{raw: s}
	seen := map[string]bool{}

	for _, part := range strings.Split(s[1:], "/") {
		if part == "" {
			continue
		}

		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if name == "" {
				return nil, errors.Newf("pattern %q has an unnamed wildcard", s)
			}

			if strings.ContainsAny(name, "{}") {
				return nil, errors.Newf("pattern %q has a malformed wildcard %q", s, part)
			}

			if seen[name] {
				return nil, errors.Newf("pattern %q binds wildcard %q twice", s, name)
			}

			seen[name] = true
			pat.segs = append(pat.segs, Segment{Wildcard: true, Name: name})

			continue
		}

		if strings.ContainsAny(part, "{}") {
			return nil, errors.Newf("pattern %q has a malformed segment %q", s, part)
		}

		pat.segs = append(pat.segs, Segment{Literal: part})
	}

	return pat, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Pattern {
	pat, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return pat
}

// String returns the pattern as it was written.
func (p *Pattern) String() string { return p.raw }

// Len returns the number of segments.
func (p *Pattern) Len() int { return len(p.segs) }

// Segments returns a copy of the parsed segments.
func (p *Pattern) Segments() []Segment {
	return append([]Segment(nil), p.segs...)
}

// Wildcards returns the wildcard names in pattern order.
func (p *Pattern) Wildcards() (names []string) {
	for _, seg := range p.segs {
		if seg.Wildcard {
			names = append(names, seg.Name)
		}
	}

	return names
}

// TrailingWildcard reports whether the last segment is a wildcard.
func (p *Pattern) TrailingWildcard() bool {
	return len(p.segs) > 0 && p.segs[len(p.segs)-1].Wildcard
}

// Split turns an escaped request path into its non-empty, unescaped segments.
func Split(escapedPath string) ([]string, error) {
	parts := strings.Split(escapedPath, "/")
	segs := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		seg, err := url.PathUnescape(part)
		if err != nil {
			return nil, errors.Wrapf(err, "unescape segment %q", part)
		}

		segs = append(segs, seg)
	}

	return segs, nil
}

// Join prefixes a pattern with another pattern, normalizing the slash in between.
func Join(prefix, pattern string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}

	return prefix + pattern
}

// Build substitutes the wildcards of 'p' with 'vals' in order.
func Build(p *Pattern, vals ...string) (string, error) {
	if want := len(p.Wildcards()); want != len(vals) {
		return "", errors.Newf("pattern %q requires %d values, got: %d", p.raw, want, len(vals))
	}

	var (
		b strings.Builder
		i int
	)

	for _, seg := range p.segs {
		b.WriteByte('/')

		if seg.Wildcard {
			b.WriteString(url.PathEscape(vals[i]))
			i++

			continue
		}

		b.WriteString(seg.Literal)
	}

	if b.Len() == 0 {
		return "/", nil
	}

	return b.String(), nil
}
