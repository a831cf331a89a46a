// Package openapi describes the routes of a registry as an OpenAPI 3 document.
package openapi

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/advdv/bdispatch"
	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
)

// Info is the general information of the document.
type Info struct {
	Title       string
	Version     string
	Description string
	Servers     []string
}

// Build describes 'routes' as an OpenAPI document. Every path and query parameter, header, body and return
// type the routes declare is included, schemas are inlined.
func Build(routes []bdispatch.RouteInfo, info Info) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, srv := range info.Servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: srv})
	}

	gen := &generator{seen: map[reflect.Type]bool{}}
	for _, rt := range routes {
		if len(rt.Operations) == 0 {
			continue
		}

		item := doc.Paths.Value(rt.Pattern)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(rt.Pattern, item)
		}

		for _, op := range rt.Operations {
			if item.GetOperation(op.Method) != nil {
				return nil, errors.Newf("%s %s is described twice", op.Method, rt.Pattern)
			}

			item.SetOperation(op.Method, gen.operation(rt, op))
		}
	}

	return doc, nil
}

// Register serves the document of every other route of 'reg' as JSON on 'path'. The document is built on
// the first request, after all routes are registered.
func Register(reg *bdispatch.Registry, path string, info Info) *bdispatch.OperationHandle {
	var (
		once sync.Once
		data []byte
		err  error
	)

	return reg.Register(path, nil).
		Get(nil, bdispatch.Sync(func(context.Context, *bdispatch.Input) (bdispatch.Result, error) {
			once.Do(func() {
				routes := make([]bdispatch.RouteInfo, 0)
				for _, rt := range reg.Routes() {
					if rt.Pattern != path {
						routes = append(routes, rt)
					}
				}

				var doc *openapi3.T
				if doc, err = Build(routes, info); err != nil {
					return
				}

				data, err = doc.MarshalJSON()
			})

			if err != nil {
				return nil, errors.Wrap(err, "build openapi document")
			}

			return bdispatch.Bytes(data, "application/json"), nil
		})).
		Comment("OpenAPI description of this service").
		Tags("openapi")
}

type generator struct {
	seen map[reflect.Type]bool
}

func (g *generator) operation(rt bdispatch.RouteInfo, oi bdispatch.OperationInfo) *openapi3.Operation {
	op := &openapi3.Operation{
		Summary: oi.Comment,
		Tags:    oi.Tags,
	}

	if rt.Name != "" {
		op.OperationID = rt.Name + "." + strings.ToLower(oi.Method)
	}

	for _, name := range rt.Wildcards {
		schema := openapi3.NewStringSchema()
		if rt.URL != nil {
			if f, ok := rt.URL.Field("url", name); ok {
				schema = g.schemaFor(f.Type)
			}
		}

		op.AddParameter(openapi3.NewPathParameter(name).WithSchema(schema))
	}

	if oi.Query != nil {
		for _, f := range oi.Query.Fields() {
			op.AddParameter(openapi3.NewQueryParameter(f.NameFor("query")).
				WithSchema(g.schemaFor(f.Type)).
				WithDescription(f.Comment))
		}
	}

	if oi.Header != nil {
		for _, f := range oi.Header.Fields() {
			op.AddParameter(openapi3.NewHeaderParameter(f.NameFor("header")).
				WithSchema(g.schemaFor(f.Type)).
				WithDescription(f.Comment))
		}
	}

	if body := g.requestBody(oi.Body); body != nil {
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	if oi.Returns == nil {
		op.Responses = openapi3.NewResponses()
	} else {
		resp := openapi3.NewResponse().
			WithDescription(oi.Returns.Name()).
			WithJSONSchema(g.returnSchema(oi.Returns))
		op.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: resp}))
	}

	return op
}

func (g *generator) requestBody(spec bdispatch.BodySpec) *openapi3.RequestBody {
	switch spec.Kind {
	case bdispatch.BodyRecord:
		if spec.Schema == nil {
			return nil
		}

		return openapi3.NewRequestBody().WithJSONSchema(g.schemaFor(spec.Schema.Type()))
	case bdispatch.BodyBytes, bdispatch.BodyFile:
		return openapi3.NewRequestBody().WithContent(openapi3.NewContentWithSchema(
			openapi3.NewStringSchema().WithFormat("binary"), []string{"application/octet-stream"}))
	case bdispatch.BodyNone:
	}

	return nil
}

// returnSchema describes what is encoded for records of 's': only the data field of an envelope.
func (g *generator) returnSchema(s *bdispatch.Schema) *openapi3.Schema {
	if _, ok := s.FieldWith(bdispatch.AnnotationStatusCode); ok {
		if df, ok := s.FieldWith(bdispatch.AnnotationData); ok {
			return g.schemaFor(df.Type)
		}
	}

	return g.schemaFor(s.Type())
}

var timeType = reflect.TypeFor[time.Time]()

func (g *generator) schemaFor(t reflect.Type) *openapi3.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == timeType {
		return openapi3.NewDateTimeSchema()
	}

	switch t.Kind() {
	case reflect.String:
		return openapi3.NewStringSchema()
	case reflect.Bool:
		return openapi3.NewBoolSchema()
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return openapi3.NewInt32Schema()
	case reflect.Int, reflect.Int64:
		return openapi3.NewInt64Schema()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return openapi3.NewIntegerSchema().WithMin(0)
	case reflect.Float32, reflect.Float64:
		return openapi3.NewFloat64Schema()
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return openapi3.NewBytesSchema()
		}

		return openapi3.NewArraySchema().WithItems(g.schemaFor(t.Elem()))
	case reflect.Map:
		return openapi3.NewObjectSchema().WithAdditionalProperties(g.schemaFor(t.Elem()))
	case reflect.Struct:
		return g.object(t)
	default:
		return &openapi3.Schema{}
	}
}

func (g *generator) object(t reflect.Type) *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	if g.seen[t] {
		return obj
	}

	s, err := bdispatch.NewSchema(t)
	if err != nil {
		return obj
	}

	g.seen[t] = true
	defer delete(g.seen, t)

	obj.Title = s.Name()
	for _, f := range s.Fields() {
		fs := g.schemaFor(f.Type)
		if f.Comment != "" {
			fs.Description = f.Comment
		}

		obj.WithProperty(f.Name, fs)
	}

	return obj
}
