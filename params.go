package bdispatch

import (
	"encoding"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// convertFunc converts one raw string value into a value of the field's (element) type.
type convertFunc func(raw string) (reflect.Value, error)

// paramField binds one schema field to its converter.
type paramField struct {
	field Field
	conv  convertFunc
	multi bool
	ptr   bool
	elem  reflect.Type
}

func newParamField(f Field) (paramField, error) {
	pf := paramField{field: f, elem: f.Type}

	if pf.elem.Kind() == reflect.Slice && pf.elem.Elem().Kind() != reflect.Uint8 {
		pf.multi, pf.elem = true, pf.elem.Elem()
	}

	if pf.elem.Kind() == reflect.Pointer {
		if pf.multi {
			return pf, errors.Newf("field %q: slices of pointers are not supported", f.GoName)
		}

		pf.ptr, pf.elem = true, pf.elem.Elem()
	}

	conv, err := converterFor(pf.elem)
	if err != nil {
		return pf, errors.Wrapf(err, "field %q", f.GoName)
	}

	pf.conv = conv

	return pf, nil
}

// set converts 'raw' and stores it into the field of record 'rec'. Multi valued fields split 'raw' on
// 'delim' and append every part.
func (pf paramField) set(rec reflect.Value, raw, delim string) error {
	dst := rec.Elem().FieldByIndex(pf.field.Index)

	if pf.multi {
		for _, part := range strings.Split(raw, delim) {
			v, err := pf.conv(part)
			if err != nil {
				return err
			}

			dst.Set(reflect.Append(dst, v))
		}

		return nil
	}

	v, err := pf.conv(raw)
	if err != nil {
		return err
	}

	if pf.ptr {
		p := reflect.New(pf.elem)
		p.Elem().Set(v)
		v = p
	}

	dst.Set(v)

	return nil
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

func converterFor(t reflect.Type) (convertFunc, error) {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(raw string) (reflect.Value, error) {
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil { //nolint:forcetypeassert
				return reflect.Value{}, errors.Wrapf(err, "parse %q as %s", raw, t)
			}

			return p.Elem(), nil
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return func(raw string) (reflect.Value, error) {
			return reflect.ValueOf(raw).Convert(t), nil
		}, nil
	case reflect.Bool:
		return func(raw string) (reflect.Value, error) {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "parse %q as %s", raw, t)
			}

			return reflect.ValueOf(b).Convert(t), nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseInt(raw, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "parse %q as %s", raw, t)
			}

			return reflect.ValueOf(n).Convert(t), nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseUint(raw, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "parse %q as %s", raw, t)
			}

			return reflect.ValueOf(n).Convert(t), nil
		}, nil
	case reflect.Float32, reflect.Float64:
		return func(raw string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(raw, t.Bits())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "parse %q as %s", raw, t)
			}

			return reflect.ValueOf(f).Convert(t), nil
		}, nil
	default:
		return nil, errors.Newf("no converter for type %s", t)
	}
}

// paramDecoder decodes query strings or headers into records of a schema. The converter table is built
// once, when the operation is registered.
type paramDecoder struct {
	schema *Schema
	tag    string
	delim  string
	fields map[string]paramField
	order  []string
}

func newParamDecoder(s *Schema, tag, delim string) (*paramDecoder, error) {
	d := &paramDecoder{schema: s, tag: tag, delim: delim, fields: map[string]paramField{}}
	for _, f := range s.fields {
		pf, err := newParamField(f)
		if err != nil {
			return nil, errors.Wrapf(err, "schema %s", s.Name())
		}

		name := f.NameFor(tag)
		if tag == "header" {
			name = http.CanonicalHeaderKey(name)
		}

		d.fields[name] = pf
		d.order = append(d.order, name)
	}

	return d, nil
}

func mustParamDecoder(s *Schema, tag, delim string) *paramDecoder {
	if s == nil {
		return nil
	}

	d, err := newParamDecoder(s, tag, delim)
	if err != nil {
		panic("bdispatch: " + err.Error())
	}

	return d
}

// decodeQuery decodes a raw query string. An empty query decodes to nil. Parameters the schema does not
// declare are passed to 'unknown' which may turn them into an error.
func (d *paramDecoder) decodeQuery(raw string, unknown func(name string) error) (any, error) {
	if raw == "" {
		return nil, nil
	}

	rec := d.schema.New()
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		name, val, _ := strings.Cut(pair, "=")

		name, err := url.QueryUnescape(name)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "unescape parameter name"), ErrDecodeQuery)
		}

		pf, ok := d.fields[name]
		if !ok {
			if err := unknown(name); err != nil {
				return nil, errors.Mark(err, ErrDecodeQuery)
			}

			continue
		}

		if val, err = url.QueryUnescape(val); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "unescape parameter %q", name), ErrDecodeQuery)
		}

		if err := pf.set(rec, val, d.delim); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parameter %q", name), ErrDecodeQuery)
		}
	}

	return rec.Interface(), nil
}

// decodeHeader decodes the declared headers. Repeated headers are appended to multi valued fields.
func (d *paramDecoder) decodeHeader(h http.Header) (any, error) {
	rec := d.schema.New()
	for _, name := range d.order {
		pf := d.fields[name]
		for _, val := range h.Values(name) {
			if err := pf.set(rec, val, d.delim); err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "header %q", name), ErrDecodeHeader)
			}
		}
	}

	return rec.Interface(), nil
}
