package bdispatch

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	// HeaderStatusReason carries the reason of a response, net/http does not allow a custom status line.
	HeaderStatusReason = "X-Status-Reason"
	// HeaderRequestID carries the id of the exchange. A request that carries one keeps it.
	HeaderRequestID = "X-Request-Id"
)

// response is a fully buffered response, or a file that is streamed.
type response struct {
	status   int
	reason   string
	header   http.Header
	body     []byte
	file     *os.File
	size     int64
	logBody  string
	cleanups []string
}

func newResponse(status int) *response {
	return &response{status: status, header: http.Header{}}
}

// exchange is one request/response pair. Responses may be committed from any goroutine but only the first
// commit counts, and only the request goroutine writes it.
type exchange struct {
	info    ExchangeInfo
	logs    Logger
	w       http.ResponseWriter
	headers http.Header
	once    sync.Once
	commits chan *response

	mu        sync.Mutex
	abandoned bool
	temp      []string
}

func newExchange(logs Logger, w http.ResponseWriter, r *http.Request, rt *route) *exchange {
	id := r.Header.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}

	return &exchange{
		info: ExchangeInfo{
			ID:     id,
			Method: r.Method,
			URI:    r.URL.RequestURI(),
			Route:  rt.pattern.String(),
		},
		logs:    logs,
		w:       w,
		headers: routeHeaders(rt, nil),
		commits: make(chan *response, 1),
	}
}

// schedule removes the file at 'path' once the exchange is over.
func (x *exchange) schedule(path string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.temp = append(x.temp, path)
}

func (x *exchange) takeTemp() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	temp := x.temp
	x.temp = nil

	return temp
}

// commit hands the response to the request goroutine. Commits after the first, and commits after the
// exchange was abandoned, only release the resources of the response.
func (x *exchange) commit(resp *response) {
	first := false
	x.once.Do(func() { first = true })

	if first {
		x.mu.Lock()
		if !x.abandoned {
			x.commits <- resp
			x.mu.Unlock()

			return
		}
		x.mu.Unlock()
	}

	if resp.file != nil {
		resp.file.Close()
	}

	paths := resp.cleanups
	if first {
		paths = append(paths, x.takeTemp()...)
	}

	x.cleanup(paths)
}

// await waits for the committed response on the request goroutine, writes it and runs the cleanups. If
// 'ctx' is done first the exchange is abandoned. It returns the status that was written.
func (x *exchange) await(ctx context.Context) int {
	var resp *response

	select {
	case resp = <-x.commits:
	case <-ctx.Done():
		x.mu.Lock()
		select {
		case resp = <-x.commits:
		default:
			x.abandoned = true
		}
		x.mu.Unlock()
	}

	if resp == nil {
		x.logs.LogAbandoned(x.info, context.Cause(ctx))
		x.w.Header().Set(HeaderRequestID, x.info.ID)
		x.w.WriteHeader(http.StatusServiceUnavailable)

		return http.StatusServiceUnavailable
	}

	defer func() { x.cleanup(append(resp.cleanups, x.takeTemp()...)) }()

	x.write(resp)
	x.logs.LogResponded(x.info, resp.status, resp.logBody)

	return resp.status
}

func (x *exchange) write(resp *response) {
	h := x.w.Header()
	for name, vals := range resp.header {
		h[name] = vals
	}

	for name, vals := range x.headers {
		h[name] = vals
	}

	h.Set(HeaderRequestID, x.info.ID)
	if resp.reason != "" {
		h.Set(HeaderStatusReason, sanitizeReason(resp.reason))
	}

	if resp.file != nil {
		defer resp.file.Close()

		h.Set("Content-Length", strconv.FormatInt(resp.size, 10))
		x.w.WriteHeader(resp.status)

		if _, err := io.Copy(x.w, resp.file); err != nil {
			x.logs.LogFailure(x.info, resp.status, errors.Wrap(err, "stream file"))
		}

		return
	}

	if len(resp.body) > 0 {
		h.Set("Content-Length", strconv.Itoa(len(resp.body)))
	}

	x.w.WriteHeader(resp.status)

	if len(resp.body) > 0 {
		if _, err := x.w.Write(resp.body); err != nil {
			x.logs.LogFailure(x.info, resp.status, errors.Wrap(err, "write body"))
		}
	}
}

func (x *exchange) cleanup(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			x.logs.LogCleanupError(x.info, path, err)
		}
	}
}

func sanitizeReason(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}

		return r
	}, s)
}
