package bdispatch

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code  uint16  `json:"code" bdispatch:"status"`
	Items []*item `json:"items" bdispatch:"data"`
}

type item struct {
	Name   string `json:"name"`
	Secret string `json:"secret" bdispatch:"sensitive"`
}

func TestUnpackEnvelope(t *testing.T) {
	status, data, ok := unpackEnvelope(&envelope{Code: 202, Items: []*item{{Name: "a"}}})
	require.True(t, ok)
	require.Equal(t, 202, status)
	require.Equal(t, []*item{{Name: "a"}}, data)

	status, data, ok = unpackEnvelope(envelope{})
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, data)

	for _, v := range []any{item{}, (*envelope)(nil), []int{1}, nil, struct {
		Status string `bdispatch:"status"`
		Data   int    `bdispatch:"data"`
	}{}} {
		_, _, ok := unpackEnvelope(v)
		require.False(t, ok)
	}
}

func TestClassify(t *testing.T) {
	for _, tt := range []struct {
		err        error
		badRequest bool
		exp        classified
	}{
		{err: NewErrorf(CodeNotFound, "not found"), exp: classified{status: 404, reason: "not found"}},
		{err: NewError(CodeGone, nil), exp: classified{status: 410, reason: "Gone"}},
		{err: NewError(CodeUnknown, errors.New("x")), exp: classified{status: 500, reason: "x"}},
		{err: NewError(Code(http.StatusContinue), errors.New("x")), exp: classified{status: 500, reason: "x"}},
		{err: NewErrorWithContent(CodeConflict, 1), exp: classified{status: 409, content: 1, hasContent: true}},
		{err: errors.Mark(errors.New("bad id"), ErrDecodeURL), exp: classified{status: 500}},
		{err: errors.Mark(errors.New("bad id"), ErrDecodeURL), badRequest: true, exp: classified{status: 400, reason: "bad id"}},
		{err: errors.Mark(errors.New("bad h"), ErrDecodeHeader), badRequest: true, exp: classified{status: 400, reason: "bad h"}},
		{err: errors.Wrap(ErrDecodeBody, "decode"), badRequest: true, exp: classified{status: 500}},
		{err: ErrUnsupportedBody, exp: classified{status: 500}},
		{err: errors.New("other"), exp: classified{status: 500}},
	} {
		require.Equal(t, tt.exp, classify(tt.err, tt.badRequest), tt.err.Error())
	}
}

func TestRedact(t *testing.T) {
	type wrapper struct {
		Items []item `json:"items"`
		Owner *item  `json:"owner"`
		Token string `json:"to.ken" bdispatch:"sensitive"`
	}

	out := redact([]byte(`{"items":[{"name":"a","secret":"s1"},{"name":"b"}],"owner":{"secret":"s2"},"to.ken":"t"}`),
		SchemaOf[wrapper]().Type())
	require.JSONEq(t, `{"items":[{"name":"a","secret":"*****"},{"name":"b"}],"owner":{"secret":"*****"},"to.ken":"*****"}`,
		string(out))

	out = redact([]byte(`[{"name":"a","secret":"s1"}]`), SchemaOf[envelope]().Fields()[1].Type)
	require.JSONEq(t, `[{"name":"a","secret":"*****"}]`, string(out))

	require.Equal(t, "abc", truncate("abc", false))
	require.Len(t, truncate(string(make([]byte, maxLoggedBodyLen+5)), false), maxLoggedBodyLen)

	cut := truncate(strings.Repeat("a", maxLoggedBodyLen-1)+"€€", false)
	require.True(t, utf8.ValidString(cut))
	require.Len(t, cut, maxLoggedBodyLen-1)
	require.Len(t, truncate(strings.Repeat("a", maxLoggedBodyLen-3)+"€€", false), maxLoggedBodyLen)
	require.Len(t, truncate(string(make([]byte, maxLoggedBodyLen+5)), true), maxLoggedBodyLen+5)
}
