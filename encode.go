package bdispatch

import (
	"bytes"
	"net/http"
	"os"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// encode turns the result of an operation into a response. A nil result has no content.
func (d *Dispatcher) encode(x *exchange, r *http.Request, rt *route, op *operation, res Result) *response {
	switch v := res.(type) {
	case nil:
		return newResponse(http.StatusNoContent)
	case *BytesResult:
		if v == nil {
			return newResponse(http.StatusNoContent)
		}

		resp := newResponse(http.StatusOK)
		resp.header.Set("Content-Type", mimeType(v.MimeType, v.Charset))
		resp.body, resp.logBody = v.Data, "[byte array]"

		return resp
	case *FileResult:
		if v == nil {
			return newResponse(http.StatusNoContent)
		}

		return d.encodeFile(x, v)
	case *RecordResult:
		if v == nil {
			return newResponse(http.StatusNoContent)
		}

		return d.encodeRecord(x, r, rt, op, v)
	default:
		return d.failure(x, errors.Newf("unsupported result type: %T", res))
	}
}

func (d *Dispatcher) encodeFile(x *exchange, res *FileResult) *response {
	f, err := os.Open(res.Path)
	if err != nil {
		return d.failure(x, errors.Wrap(err, "open result file"))
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return d.failure(x, errors.Wrap(err, "stat result file"))
	}

	resp := newResponse(http.StatusOK)
	resp.header.Set("Content-Type", mimeType(res.MimeType, ""))
	resp.file, resp.size, resp.logBody = f, st.Size(), "[file data]"

	del := !d.opts.logs.Verbose()
	if res.DeleteAfterSend != nil {
		del = *res.DeleteAfterSend
	}

	if del {
		resp.cleanups = append(resp.cleanups, res.Path)
	}

	return resp
}

func (d *Dispatcher) encodeRecord(x *exchange, r *http.Request, rt *route, op *operation, res *RecordResult) *response {
	status, payload := http.StatusOK, res.Record
	if code, data, ok := unpackEnvelope(res.Record); ok {
		status, payload = code, data
	}

	if res.StatusCode != 0 {
		status = res.StatusCode
	}

	if !validStatus(status) {
		return d.failure(x, errors.Newf("operation returned invalid status %d", status))
	}

	resp := newResponse(status)
	if payload == nil {
		return resp
	}

	data, err := d.opts.codec.Encode(payload)
	if err != nil {
		return d.methodFailure(x, errors.Wrap(err, "encode result"))
	}

	resp.header.Set("Content-Type", d.opts.codec.ContentType())
	resp.body = data

	logged := data
	if op.sensitive {
		logged = redact(data, reflect.TypeOf(payload))
	}

	resp.logBody = truncate(string(logged), d.opts.logs.Verbose())

	enc := d.opts.compressor.Encoding()
	if !rt.gzipEnabled(d.opts.gzip) || !accepts(r, enc) {
		return resp
	}

	var buf bytes.Buffer
	if err := d.opts.compressor.Compress(&buf, data); err != nil {
		return d.methodFailure(x, errors.Wrap(err, "compress result"))
	}

	resp.body = buf.Bytes()
	resp.header.Set("Content-Encoding", enc)
	resp.header.Add("Vary", "Accept-Encoding")

	return resp
}

// unpackEnvelope reads the status and data fields of a struct that has both annotated. A zero status is a
// 200, a nil data field has no content.
func unpackEnvelope(v any) (int, any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, nil, false
		}

		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return 0, nil, false
	}

	s, err := NewSchema(rv.Type())
	if err != nil {
		return 0, nil, false
	}

	sf, ok := s.FieldWith(AnnotationStatusCode)
	if !ok {
		return 0, nil, false
	}

	df, ok := s.FieldWith(AnnotationData)
	if !ok {
		return 0, nil, false
	}

	var status int

	switch sv := rv.FieldByIndex(sf.Index); sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		status = int(sv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		status = int(sv.Uint()) //nolint:gosec
	default:
		return 0, nil, false
	}

	if status == 0 {
		status = http.StatusOK
	}

	dv := rv.FieldByIndex(df.Index)
	switch dv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		if dv.IsNil() {
			return status, nil, true
		}
	default:
	}

	return status, dv.Interface(), true
}

func accepts(r *http.Request, encoding string) bool {
	for _, v := range r.Header.Values("Accept-Encoding") {
		if strings.Contains(strings.ToLower(v), encoding) {
			return true
		}
	}

	return false
}

func mimeType(mime, charset string) string {
	if mime == "" {
		mime = "application/octet-stream"
	}

	if charset != "" {
		mime += "; charset=" + charset
	}

	return mime
}
