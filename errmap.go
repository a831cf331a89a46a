package bdispatch

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// classified is the outcome of mapping a failure onto a response.
type classified struct {
	status     int
	reason     string
	content    any
	hasContent bool
}

// classify maps a failure: declared errors keep their code and either their content or their message as the
// reason. Malformed url, query or header values are a 400 when 'badRequest' is set. Everything else is a
// 500 whose message is only logged.
func classify(err error, badRequest bool) classified {
	if derr, ok := asError(err); ok {
		status := int(derr.Code())
		if !validStatus(status) {
			status = http.StatusInternalServerError
		}

		if derr.HasContent() {
			return classified{status: status, content: derr.Content(), hasContent: true}
		}

		reason := derr.Message()
		if reason == "" {
			reason = statusText(Code(status))
		}

		return classified{status: status, reason: reason}
	}

	malformed := errors.Is(err, ErrDecodeURL) || errors.Is(err, ErrDecodeQuery) || errors.Is(err, ErrDecodeHeader)
	if badRequest && malformed {
		return classified{status: http.StatusBadRequest, reason: err.Error()}
	}

	return classified{status: http.StatusInternalServerError}
}

// validStatus reports whether 'status' can be written as the final status of a response. Informational
// codes cannot, net/http would follow them with an implicit 200.
func validStatus(status int) bool {
	return status >= 200 && status <= 999
}

// failure classifies 'err' into a response and logs it.
func (d *Dispatcher) failure(x *exchange, err error) *response {
	c := classify(err, d.opts.badRequest)
	resp := newResponse(c.status)
	resp.reason = c.reason

	if c.hasContent {
		data, eerr := d.opts.codec.Encode(c.content)
		if eerr != nil {
			return d.methodFailure(x, errors.Wrapf(eerr, "encode content of: %s", err))
		}

		resp.header.Set("Content-Type", d.opts.codec.ContentType())
		resp.body = data
		resp.logBody = truncate(string(data), d.opts.logs.Verbose())
	}

	x.logs.LogFailure(x.info, resp.status, err)

	return resp
}

// methodFailure is the response for a result that was computed but could not be encoded.
func (d *Dispatcher) methodFailure(x *exchange, err error) *response {
	resp := newResponse(int(CodeMethodFailure))
	resp.reason = statusText(CodeMethodFailure)
	x.logs.LogFailure(x.info, resp.status, err)

	return resp
}
