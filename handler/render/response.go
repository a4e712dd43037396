package render

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Response internal error msg as hint
var ResponseErrorMessageAsHint bool

func init() {
	v := os.Getenv("RESPONSE_ERROR_MESSAGE_AS_HINT")
	ResponseErrorMessageAsHint, _ = strconv.ParseBool(v)
}

type wrapResponse struct {
	status int
	header http.Header
	buf    *bytes.Buffer
}

func (w *wrapResponse) Header() http.Header {
	return w.header
}

func (w *wrapResponse) WriteHeader(statusCode int) {
	w.status = statusCode
}

func (w *wrapResponse) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *wrapResponse) isJsonContent() bool {
	typ := w.header.Get("Content-Type")
	return strings.HasPrefix(typ, "application/json")
}

type dataResponse struct {
	Data json.RawMessage `json:"data,omitempty"`
}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Hint string `json:"hint,omitempty"`
}

// WrapResponse wraps successful json bodies as {"data": ...}. With hideInternal the
// message of a 5xx error is replaced by the status text, and kept as hint when
// RESPONSE_ERROR_MESSAGE_AS_HINT is set.
func WrapResponse(hideInternal bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			wrap := &wrapResponse{
				status: http.StatusOK,
				header: w.Header(),
				buf:    &bytes.Buffer{},
			}

			next.ServeHTTP(wrap, r)

			body := wrap.buf.Bytes()
			if wrap.isJsonContent() {
				body = wrap.rewrite(body, hideInternal)
			}

			w.WriteHeader(wrap.status)
			_, _ = w.Write(body)
		}

		return http.HandlerFunc(fn)
	}
}

func (w *wrapResponse) rewrite(body []byte, hideInternal bool) []byte {
	if w.status < http.StatusBadRequest {
		data, err := json.Marshal(dataResponse{Data: bytes.TrimSpace(body)})
		if err != nil {
			return body
		}

		return data
	}

	if !hideInternal || w.status < http.StatusInternalServerError {
		return body
	}

	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return body
	}

	if ResponseErrorMessageAsHint {
		resp.Hint = resp.Msg
	}
	resp.Msg = http.StatusText(w.status)

	data, err := json.Marshal(resp)
	if err != nil {
		return body
	}

	return data
}
