package bdispatch

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
)

// Codec is the serialization service records are decoded and encoded with.
type Codec interface {
	// Decode decodes 'data' into a new record of schema 's' and returns a pointer to it.
	Decode(data []byte, s *Schema) (any, error)
	// Encode encodes 'v' into its wire representation.
	Encode(v any) ([]byte, error)
	// ContentType is the content type of encoded values.
	ContentType() string
}

// JSONCodec is the default [Codec].
type JSONCodec struct {
	// DisallowUnknownFields rejects bodies with fields the schema does not declare.
	DisallowUnknownFields bool
}

// Decode implements [Codec].
func (c JSONCodec) Decode(data []byte, s *Schema) (any, error) {
	rec := s.New()

	dec := json.NewDecoder(bytes.NewReader(data))
	if c.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(rec.Interface()); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.Name())
	}

	return rec.Interface(), nil
}

// Encode implements [Codec].
func (JSONCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode")
	}

	return data, nil
}

// ContentType implements [Codec].
func (JSONCodec) ContentType() string { return "application/json; charset=utf-8" }

// Compressor compresses encoded records for clients that accept its encoding.
type Compressor interface {
	Encoding() string
	Compress(dst io.Writer, src []byte) error
}

// GzipCompressor returns a gzip [Compressor] with the given level.
func GzipCompressor(level int) Compressor { return gzipCompressor{level} }

type gzipCompressor struct{ level int }

func (gzipCompressor) Encoding() string { return "gzip" }

func (c gzipCompressor) Compress(dst io.Writer, src []byte) error {
	zw, err := gzip.NewWriterLevel(dst, c.level)
	if err != nil {
		return errors.Wrap(err, "init gzip writer")
	}

	if _, err := zw.Write(src); err != nil {
		return errors.Wrap(err, "write gzip")
	}

	return errors.Wrap(zw.Close(), "close gzip")
}
