package bdispatch

import (
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	redactedValue    = "*****"
	maxRedactDepth   = 16
	maxLoggedBodyLen = 10000
)

// redact replaces the values of fields annotated as sensitive in the encoded JSON 'data' of a value of type
// 't'. The result is only ever used for logging.
func redact(data []byte, t reflect.Type) []byte {
	out, err := redactAt(data, "", t, 0)
	if err != nil {
		return []byte(`"[sensitive]"`)
	}

	return out
}

func redactAt(data []byte, path string, t reflect.Type, depth int) ([]byte, error) {
	if depth > maxRedactDepth || t == nil {
		return data, nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var err error

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		n := gjson.GetBytes(data, joinPath(path, "#")).Int()
		for i := range n {
			if data, err = redactAt(data, joinPath(path, strconv.FormatInt(i, 10)), t.Elem(), depth+1); err != nil {
				return nil, err
			}
		}
	case reflect.Struct:
		s, serr := NewSchema(t)
		if serr != nil {
			return data, nil //nolint:nilerr
		}

		for _, f := range s.fields {
			p := joinPath(path, escapePath(f.Name))
			if !gjson.GetBytes(data, p).Exists() {
				continue
			}

			if f.Has(AnnotationSensitive) {
				if data, err = sjson.SetBytes(data, p, redactedValue); err != nil {
					return nil, err
				}

				continue
			}

			if data, err = redactAt(data, p, f.Type, depth+1); err != nil {
				return nil, err
			}
		}
	default:
	}

	return data, nil
}

func joinPath(path, elem string) string {
	if path == "" {
		return elem
	}

	return path + "." + elem
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`,
)

func escapePath(name string) string { return pathEscaper.Replace(name) }

// truncate shortens logged bodies unless 'full' is set.
func truncate(s string, full bool) string {
	if full || len(s) <= maxLoggedBodyLen {
		return s
	}

	end := maxLoggedBodyLen
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}

	return s[:end]
}
