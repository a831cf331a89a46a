package bdispatch

import (
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Annotation marks a schema field with a role the dispatcher understands. Annotations are declared with the
// "bdispatch" struct tag, e.g. `bdispatch:"status"` or `bdispatch:"data,sensitive"`.
type Annotation string

const (
	// AnnotationStatusCode marks the integer field that holds the status code of a response envelope.
	AnnotationStatusCode Annotation = "status"
	// AnnotationData marks the field that holds the payload of a response envelope.
	AnnotationData Annotation = "data"
	// AnnotationSensitive marks a field whose value is redacted when payloads are logged.
	AnnotationSensitive Annotation = "sensitive"
)

// Field describes one exported field of a schema.
type Field struct {
	Name    string
	GoName  string
	Index   []int
	Type    reflect.Type
	Comment string

	tag         reflect.StructTag
	annotations []Annotation
}

// Has reports whether the field carries annotation 'a'.
func (f Field) Has(a Annotation) bool {
	for _, fa := range f.annotations {
		if fa == a {
			return true
		}
	}

	return false
}

// NameFor returns the name of the field as used by the binding identified by 'tag' (url, query, header). It
// falls back to the JSON name of the field.
func (f Field) NameFor(tag string) string {
	if v, ok := f.tag.Lookup(tag); ok {
		if name, _, _ := strings.Cut(v, ","); name != "" {
			return name
		}
	}

	return f.Name
}

// Schema describes the shape of a record. It is the reflection capability the dispatcher needs: iterating
// fields, looking up fields by annotation and instantiating new records. Schemas are built once per type.
type Schema struct {
	typ    reflect.Type
	fields []Field
}

var schemas sync.Map // reflect.Type -> *Schema

// SchemaOf returns the schema for struct type T. It panics if T is not a struct.
func SchemaOf[T any]() *Schema {
	s, err := NewSchema(reflect.TypeFor[T]())
	if err != nil {
		panic("bdispatch: " + err.Error())
	}

	return s
}

// NewSchema returns the schema for struct type 't', pointers are dereferenced.
func NewSchema(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, errors.New("schema type must not be nil")
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, errors.Newf("schema type must be a struct, got: %s", t)
	}

	if s, ok := schemas.Load(t); ok {
		return s.(*Schema), nil //nolint:forcetypeassert
	}

	s := &Schema{typ: t}
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name, skip := jsonName(sf)
		if skip {
			continue
		}

		fld := Field{
			Name:    name,
			GoName:  sf.Name,
			Index:   sf.Index,
			Type:    sf.Type,
			Comment: sf.Tag.Get("doc"),
			tag:     sf.Tag,
		}

		if v := sf.Tag.Get("bdispatch"); v != "" {
			for _, a := range strings.Split(v, ",") {
				fld.annotations = append(fld.annotations, Annotation(strings.TrimSpace(a)))
			}
		}

		s.fields = append(s.fields, fld)
	}

	actual, _ := schemas.LoadOrStore(t, s)

	return actual.(*Schema), nil //nolint:forcetypeassert
}

func jsonName(sf reflect.StructField) (string, bool) {
	v, ok := sf.Tag.Lookup("json")
	if !ok {
		return sf.Name, false
	}

	if v == "-" {
		return "", true
	}

	if name, _, _ := strings.Cut(v, ","); name != "" {
		return name, false
	}

	return sf.Name, false
}

// Name returns the name of the underlying type.
func (s *Schema) Name() string { return s.typ.Name() }

// Type returns the underlying struct type.
func (s *Schema) Type() reflect.Type { return s.typ }

// Fields returns the exported fields in declaration order.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Field looks up a field by the name it has for binding 'tag'.
func (s *Schema) Field(tag, name string) (Field, bool) {
	for _, f := range s.fields {
		if f.NameFor(tag) == name {
			return f, true
		}
	}

	return Field{}, false
}

// FieldWith returns the first field that carries annotation 'a'.
func (s *Schema) FieldWith(a Annotation) (Field, bool) {
	for _, f := range s.fields {
		if f.Has(a) {
			return f, true
		}
	}

	return Field{}, false
}

// New returns a pointer to a new zero record.
func (s *Schema) New() reflect.Value { return reflect.New(s.typ) }

// sameSchema compares schemas by identity of their type, nil schemas are equal.
func sameSchema(a, b *Schema) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.typ == b.typ
}

// schemaName returns the name of 's' or an empty string when it is nil.
func schemaName(s *Schema) string {
	if s == nil {
		return ""
	}

	return s.Name()
}
