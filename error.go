package bdispatch

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Code is an error code that mirrors the http status codes. Operations return errors carrying a code to
// select the status of the response.
type Code int

const (
	CodeUnknown                      Code = 0
	CodeBadRequest                   Code = http.StatusBadRequest                   // RFC 9110, 15.5.1
	CodeUnauthorized                 Code = http.StatusUnauthorized                 // RFC 9110, 15.5.2
	CodePaymentRequired              Code = http.StatusPaymentRequired              // RFC 9110, 15.5.3
	CodeForbidden                    Code = http.StatusForbidden                    // RFC 9110, 15.5.4
	CodeNotFound                     Code = http.StatusNotFound                     // RFC 9110, 15.5.5
	CodeMethodNotAllowed             Code = http.StatusMethodNotAllowed             // RFC 9110, 15.5.6
	CodeNotAcceptable                Code = http.StatusNotAcceptable                // RFC 9110, 15.5.7
	CodeProxyAuthRequired            Code = http.StatusProxyAuthRequired            // RFC 9110, 15.5.8
	CodeRequestTimeout               Code = http.StatusRequestTimeout               // RFC 9110, 15.5.9
	CodeConflict                     Code = http.StatusConflict                     // RFC 9110, 15.5.10
	CodeGone                         Code = http.StatusGone                         // RFC 9110, 15.5.11
	CodeLengthRequired               Code = http.StatusLengthRequired               // RFC 9110, 15.5.12
	CodePreconditionFailed           Code = http.StatusPreconditionFailed           // RFC 9110, 15.5.13
	CodeRequestEntityTooLarge        Code = http.StatusRequestEntityTooLarge        // RFC 9110, 15.5.14
	CodeRequestURITooLong            Code = http.StatusRequestURITooLong            // RFC 9110, 15.5.15
	CodeUnsupportedMediaType         Code = http.StatusUnsupportedMediaType         // RFC 9110, 15.5.16
	CodeRequestedRangeNotSatisfiable Code = http.StatusRequestedRangeNotSatisfiable // RFC 9110, 15.5.17
	CodeExpectationFailed            Code = http.StatusExpectationFailed            // RFC 9110, 15.5.18
	CodeTeapot                       Code = http.StatusTeapot                       // RFC 9110, 15.5.19 (Unused)
	CodeMisdirectedRequest           Code = http.StatusMisdirectedRequest           // RFC 9110, 15.5.20
	CodeUnprocessableEntity          Code = http.StatusUnprocessableEntity          // RFC 9110, 15.5.21
	CodeLocked                       Code = http.StatusLocked                       // RFC 4918, 11.3
	CodeFailedDependency             Code = http.StatusFailedDependency             // RFC 4918, 11.4
	CodeTooEarly                     Code = http.StatusTooEarly                     // RFC 8470, 5.2.
	CodeUpgradeRequired              Code = http.StatusUpgradeRequired              // RFC 9110, 15.5.22
	CodePreconditionRequired         Code = http.StatusPreconditionRequired         // RFC 6585, 3
	CodeTooManyRequests              Code = http.StatusTooManyRequests              // RFC 6585, 4
	CodeRequestHeaderFieldsTooLarge  Code = http.StatusRequestHeaderFieldsTooLarge  // RFC 6585, 5
	CodeUnavailableForLegalReasons   Code = http.StatusUnavailableForLegalReasons   // RFC 7725, 3

	CodeInternalServerError           Code = http.StatusInternalServerError           // RFC 9110, 15.6.1
	CodeNotImplemented                Code = http.StatusNotImplemented                // RFC 9110, 15.6.2
	CodeBadGateway                    Code = http.StatusBadGateway                    // RFC 9110, 15.6.3
	CodeServiceUnavailable            Code = http.StatusServiceUnavailable            // RFC 9110, 15.6.4
	CodeGatewayTimeout                Code = http.StatusGatewayTimeout                // RFC 9110, 15.6.5
	CodeHTTPVersionNotSupported       Code = http.StatusHTTPVersionNotSupported       // RFC 9110, 15.6.6
	CodeVariantAlsoNegotiates         Code = http.StatusVariantAlsoNegotiates         // RFC 2295, 8.1
	CodeInsufficientStorage           Code = http.StatusInsufficientStorage           // RFC 4918, 11.5
	CodeLoopDetected                  Code = http.StatusLoopDetected                  // RFC 5842, 7.2
	CodeNotExtended                   Code = http.StatusNotExtended                   // RFC 2774, 7
	CodeNetworkAuthenticationRequired Code = http.StatusNetworkAuthenticationRequired // RFC 6585, 6

	// CodeMethodFailure is the WebDAV era "Method Failure" status. It is what a response is downgraded to
	// when the encoding of an already computed result fails.
	CodeMethodFailure Code = 420
)

var (
	// ErrDecodeBody is wrapped by failures to decode a typed request body.
	ErrDecodeBody = errors.New("bdispatch: decode body")
	// ErrDecodeQuery is wrapped by failures to convert query parameters.
	ErrDecodeQuery = errors.New("bdispatch: decode query")
	// ErrDecodeURL is wrapped by failures to convert wildcard segments.
	ErrDecodeURL = errors.New("bdispatch: decode url")
	// ErrDecodeHeader is wrapped by failures to convert header values.
	ErrDecodeHeader = errors.New("bdispatch: decode header")
	// ErrUnsupportedBody is returned when the request does not have the shape the body kind needs.
	ErrUnsupportedBody = errors.New("bdispatch: unsupported request body")
)

// Error is a declared domain error. It carries the status code of the response and either a message, that
// is used as the reason of the response, or structured content that is encoded as the response body.
type Error struct {
	code    Code
	err     error
	content any
}

// NewError inits a new error given the error code.
func NewError(c Code, underlying error) *Error {
	return &Error{code: c, err: underlying}
}

// NewErrorf inits a new error with a formatted message.
func NewErrorf(c Code, format string, args ...any) *Error {
	return &Error{code: c, err: errors.Newf(format, args...)}
}

// NewErrorWithContent inits an error whose content is encoded as JSON into the response body.
func NewErrorWithContent(c Code, content any) *Error {
	return &Error{code: c, content: content}
}

func (e *Error) Code() Code       { return e.code }
func (e *Error) Content() any     { return e.content }
func (e *Error) Unwrap() error    { return e.err }
func (e *Error) HasContent() bool { return e.content != nil }

// Message returns the message of the underlying error, or an empty string.
func (e *Error) Message() string {
	if e.err == nil {
		return ""
	}

	return e.err.Error()
}

func (e *Error) Error() string {
	if e.err == nil {
		return statusText(e.code)
	}

	return fmt.Sprintf("%s: %s", statusText(e.code), e.err.Error())
}

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if derr, ok := asError(err); ok {
		return derr.Code()
	}
	return CodeUnknown
}

// asError uses errors.As to unwrap any error and look for an *Error.
func asError(err error) (*Error, bool) {
	var derr *Error
	ok := errors.As(err, &derr)
	return derr, ok
}

func statusText(c Code) string {
	if c == CodeMethodFailure {
		return "Method Failure"
	}

	if status := http.StatusText(int(c)); status != "" {
		return status
	}

	return "Unknown"
}
