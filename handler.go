package bdispatch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// serve drives one exchange: decode, invoke, encode, commit and clean up. It returns once the response is
// written, or once the request context is done.
func (d *Dispatcher) serve(w http.ResponseWriter, r *http.Request, rt *route, segs []string) {
	ctx := r.Context()
	x := newExchange(d.opts.logs, w, r, rt)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("http.route", rt.pattern.String()))

	op, ok := rt.ops[r.Method]
	switch {
	case r.Method == http.MethodOptions:
		x.commit(d.options(rt))
	case !ok:
		x.commit(d.failure(x, NewErrorf(CodeForbidden, "no %s operation on %s", r.Method, rt.pattern)))
	default:
		x.headers = routeHeaders(rt, op)
		d.run(ctx, x, r, rt, op, segs)
	}

	status := x.await(ctx)
	span.SetAttributes(attribute.Int("http.response.status_code", status))
}

func (d *Dispatcher) run(ctx context.Context, x *exchange, r *http.Request, rt *route, op *operation, segs []string) {
	in, err := d.decode(x, r, rt, op, segs)
	if err != nil {
		x.commit(d.failure(x, err))
		return
	}

	x.logs.LogReceived(x.info, d.loggedInput(op, in))

	d.invoke(ctx, op, in).OnComplete(func(res Result, err error) {
		defer func() {
			if v := recover(); v != nil {
				x.commit(d.failure(x, panicError(v)))
			}
		}()

		if err != nil {
			x.commit(d.failure(x, err))
			return
		}

		x.commit(d.encode(x, r, rt, op, res))
	})
}

// invoke calls the operation, on its executor if it has one. Errors and panics of the call itself fail the
// returned future, a nil future completes it without content.
func (d *Dispatcher) invoke(ctx context.Context, op *operation, in *Input) *Future {
	call := func() (fut *Future) {
		defer func() {
			if v := recover(); v != nil {
				fut = Failed(panicError(v))
			}
		}()

		fut, err := op.consume(ctx, in)
		switch {
		case err != nil:
			return Failed(err)
		case fut == nil:
			return Completed(nil)
		default:
			return fut
		}
	}

	if op.executor == nil {
		return call()
	}

	fut := NewFuture()
	op.executor.Execute(func() {
		call().OnComplete(func(res Result, err error) { fut.Complete(res, err) })
	})

	return fut
}

func (d *Dispatcher) decode(x *exchange, r *http.Request, rt *route, op *operation, segs []string) (*Input, error) {
	var (
		in  Input
		err error
	)

	if in.URL, err = rt.matcher.parse(segs); err != nil {
		return nil, err
	}

	if op.query != nil {
		if in.Query, err = op.query.decodeQuery(r.URL.RawQuery, func(name string) error {
			if d.opts.strictQuery {
				return NewErrorf(CodeBadRequest, "unknown query parameter %q", name)
			}

			x.logs.LogUnknownParam(x.info, name)

			return nil
		}); err != nil {
			return nil, err
		}
	}

	if op.header != nil {
		if in.Header, err = op.header.decodeHeader(r.Header); err != nil {
			return nil, err
		}
	}

	if hasEntity(r.Method) && op.body.Kind != BodyNone {
		if in.Body, err = d.decodeBody(x, r, op); err != nil {
			return nil, err
		}
	}

	return &in, nil
}

func (d *Dispatcher) decodeBody(x *exchange, r *http.Request, op *operation) (*Body, error) {
	if r.Body == nil {
		return nil, errors.Wrapf(ErrUnsupportedBody, "%s request has no body to decode as %s", r.Method, op.body.Kind)
	}

	body := &Body{kind: op.body.Kind, contentType: r.Header.Get("Content-Type")}

	switch op.body.Kind {
	case BodyFile:
		f, err := os.CreateTemp(d.opts.tempDir, "bdispatch-body-*")
		if err != nil {
			return nil, errors.Wrap(err, "create temp file")
		}

		x.schedule(f.Name())
		body.path = f.Name()

		_, err = io.Copy(f, r.Body)
		if cerr := f.Close(); err == nil {
			err = cerr
		}

		if err != nil {
			return nil, errors.Wrap(err, "write temp file")
		}
	case BodyBytes, BodyRecord:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, errors.Wrap(err, "read body")
		}

		body.data = data
		if op.body.Kind != BodyRecord || op.body.Schema == nil || len(bytes.TrimSpace(data)) == 0 {
			break
		}

		if body.record, err = d.opts.codec.Decode(data, op.body.Schema); err != nil {
			return nil, errors.Mark(err, ErrDecodeBody)
		}
	case BodyNone:
	}

	return body, nil
}

func (d *Dispatcher) loggedInput(op *operation, in *Input) string {
	if in.Body == nil {
		return ""
	}

	switch in.Body.kind {
	case BodyBytes:
		return "[byte array]"
	case BodyFile:
		return "[file data]"
	case BodyRecord:
		data := in.Body.data
		if op.sensitive && op.body.Schema != nil {
			data = redact(data, op.body.Schema.Type())
		}

		return truncate(string(data), d.opts.logs.Verbose())
	case BodyNone:
	}

	return ""
}

// options answers OPTIONS requests with the verbs of the route and its declared headers.
func (d *Dispatcher) options(rt *route) *response {
	resp := newResponse(http.StatusOK)
	methods := slices.Sorted(slices.Values(rt.methods))
	resp.header.Set("Allow", strings.Join(append(methods, http.MethodOptions), ", "))

	return resp
}

func hasEntity(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
