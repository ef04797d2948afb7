package lifecycle

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// Middleware returns a Chi-compatible middleware that runs HTML responses
// through Transform. The decision is made when the handler first writes or
// flushes; any other response is streamed to the client as it is written.
func (p *Pipeline) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := newResponseRecorder(w)
			next.ServeHTTP(recorder, r)

			switch recorder.mode {
			case modeStream:
				return
			case modeUndecided:
				recorder.ResponseWriter.WriteHeader(recorder.statusCode)
				return
			}

			body := recorder.body.Bytes()
			if len(body) == 0 {
				recorder.flush(body)
				return
			}

			out := p.Transform(r.Context(), string(body))
			if len(out) != len(body) {
				p.logger.Debug("document rewritten", "path", r.URL.Path, "before", len(body), "after", len(out))
			}
			recorder.flush([]byte(out))
		})
	}
}

// Rewritable reports whether a response is an uncompressed HTML document.
// When contentType is empty it is sniffed from the leading body bytes.
func Rewritable(contentType, contentEncoding string, body []byte) bool {
	if contentEncoding != "" && !strings.EqualFold(contentEncoding, "identity") {
		return false
	}
	if contentType == "" {
		if len(body) == 0 {
			return false
		}
		contentType = http.DetectContentType(body)
	}
	return IsHTML(contentType)
}

// IsHTML reports whether a Content-Type header value denotes an HTML document.
func IsHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html"
}

type recorderMode int

const (
	modeUndecided recorderMode = iota
	modeBuffer
	modeStream
)

// responseRecorder buffers HTML responses from the next handler so they can be
// rewritten before anything reaches the client. Other responses are written
// straight through.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	mode       recorderMode
	body       bytes.Buffer
}

// newResponseRecorder creates a new responseRecorder.
func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code until the response mode is known.
func (r *responseRecorder) WriteHeader(code int) {
	if r.mode == modeStream {
		return
	}
	r.statusCode = code
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if r.mode == modeUndecided {
		r.decide(b)
	}
	if r.mode == modeStream {
		return r.ResponseWriter.Write(b)
	}
	return r.body.Write(b)
}

// Flush forwards to the underlying writer for streamed responses.
// Buffered documents are flushed once rewritten.
func (r *responseRecorder) Flush() {
	if r.mode == modeUndecided {
		r.decide(nil)
	}
	if r.mode != modeStream {
		return
	}
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// decide picks the response mode from the headers and the first body chunk.
func (r *responseRecorder) decide(first []byte) {
	h := r.Header()
	if Rewritable(h.Get("Content-Type"), h.Get("Content-Encoding"), first) {
		r.mode = modeBuffer
		return
	}
	r.mode = modeStream
	r.ResponseWriter.WriteHeader(r.statusCode)
}

// flush writes the captured status and headers followed by body.
func (r *responseRecorder) flush(body []byte) {
	if len(body) > 0 {
		r.ResponseWriter.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	r.ResponseWriter.WriteHeader(r.statusCode)
	if len(body) > 0 {
		_, _ = r.ResponseWriter.Write(body)
	}
}
