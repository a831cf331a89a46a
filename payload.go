package bdispatch

// BodyKind describes how the request body of an operation is decoded.
type BodyKind int

const (
	// BodyNone ignores any request body.
	BodyNone BodyKind = iota
	// BodyBytes reads the whole body into memory.
	BodyBytes
	// BodyFile streams the body to a temporary file that is removed once the response is committed.
	BodyFile
	// BodyRecord decodes the body as JSON into a typed record.
	BodyRecord
)

func (k BodyKind) String() string {
	switch k {
	case BodyNone:
		return "none"
	case BodyBytes:
		return "bytes"
	case BodyFile:
		return "file"
	case BodyRecord:
		return "record"
	default:
		return "unknown"
	}
}

// BodySpec declares the body kind of an operation and, for typed records, its schema.
type BodySpec struct {
	Kind   BodyKind
	Schema *Schema
}

// NoBody declares that the operation takes no body.
func NoBody() BodySpec { return BodySpec{Kind: BodyNone} }

// RawBody declares that the operation takes the body as opaque bytes.
func RawBody() BodySpec { return BodySpec{Kind: BodyBytes} }

// FileBody declares that the operation takes the body as a temporary file.
func FileBody() BodySpec { return BodySpec{Kind: BodyFile} }

// TypedBody declares that the operation takes the body as a JSON record of type T.
func TypedBody[T any]() BodySpec { return TypedBodyOf(SchemaOf[T]()) }

// TypedBodyOf declares that the operation takes the body as a JSON record described by 's'.
func TypedBodyOf(s *Schema) BodySpec { return BodySpec{Kind: BodyRecord, Schema: s} }

// Body is a decoded request body.
type Body struct {
	kind        BodyKind
	data        []byte
	path        string
	record      any
	contentType string
}

// Kind returns the kind of body.
func (b *Body) Kind() BodyKind { return b.kind }

// Bytes returns the body of a [BodyBytes] operation.
func (b *Body) Bytes() []byte { return b.data }

// Path returns the temporary file of a [BodyFile] operation. The file is removed after the response is sent.
func (b *Body) Path() string { return b.path }

// Record returns the decoded record of a [BodyRecord] operation, a pointer to the schema's type.
func (b *Body) Record() any { return b.record }

// ContentType returns the content type the client declared for the body.
func (b *Body) ContentType() string { return b.contentType }

// Input is what an operation is invoked with. Each field is nil when nothing was decoded for it.
type Input struct {
	Body   *Body
	URL    any
	Query  any
	Header any
}

// Result is what an operation completes with. It is one of [*BytesResult], [*FileResult] or [*RecordResult].
type Result interface{ result() }

// BytesResult is sent as raw bytes with the declared mime type.
type BytesResult struct {
	Data     []byte
	MimeType string
	Charset  string
}

// FileResult streams the file at Path. Unless DeleteAfterSend is set explicitly the file is deleted once it is
// streamed, except when the logger is verbose.
type FileResult struct {
	Path            string
	MimeType        string
	DeleteAfterSend *bool
}

// RecordResult is encoded as JSON. A non-zero StatusCode overrides the status. When Record is a struct with
// fields annotated as status code and data, the envelope is unpacked: the status is read from the one and only
// the other is encoded.
type RecordResult struct {
	Record     any
	StatusCode int
}

func (*BytesResult) result()  {}
func (*FileResult) result()   {}
func (*RecordResult) result() {}

// Bytes returns a result that sends 'data' as is.
func Bytes(data []byte, mimeType string) *BytesResult {
	return &BytesResult{Data: data, MimeType: mimeType}
}

// File returns a result that streams the file at 'path'.
func File(path, mimeType string) *FileResult {
	return &FileResult{Path: path, MimeType: mimeType}
}

// Keep marks the file to be kept after it is sent.
func (r *FileResult) Keep() *FileResult {
	keep := false
	r.DeleteAfterSend = &keep

	return r
}

// Record returns a result that encodes 'v' as JSON.
func Record(v any) *RecordResult { return &RecordResult{Record: v} }

// Status returns a result that encodes 'v' as JSON with the given status code.
func Status(code int, v any) *RecordResult { return &RecordResult{Record: v, StatusCode: code} }
