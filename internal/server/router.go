package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/peteski22/consent-gate/internal/consent"
	"github.com/peteski22/consent-gate/internal/gate"
	"github.com/peteski22/consent-gate/internal/integrations"
	"github.com/peteski22/consent-gate/internal/lifecycle"
)

// ResolveResponse is the body of a successful signature lookup.
type ResolveResponse struct {
	Code  string        `json:"code"`
	Flags consent.Flags `json:"flags"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter returns the HTTP handler for serve mode: health and consent API
// routes, with everything else proxied to upstream through the pipeline's
// rewriting middleware. A nil upstream answers proxied requests with 502.
func NewRouter(logger hclog.Logger, g *gate.Gate, p *lifecycle.Pipeline, upstream *url.URL) http.Handler {
	logger = logger.Named("http")

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(accessLog(logger))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	router.Route("/api/v1/consent", func(r chi.Router) {
		r.Get("/mapping", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, g.Resolver().Mapping())
		})

		r.Get("/resolve/{code}", func(w http.ResponseWriter, r *http.Request) {
			code, err := url.PathUnescape(chi.URLParam(r, "code"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}

			flags, err := g.Resolver().Resolve(code)
			if errors.Is(err, consent.ErrUnknownSignature) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
				return
			}
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}

			writeJSON(w, http.StatusOK, ResolveResponse{Code: code, Flags: flags})
		})

		r.Get("/declaration", func(w http.ResponseWriter, r *http.Request) {
			writeHTML(w, http.StatusOK, g.Declaration(r.URL.Query().Get("lang")))
		})

		r.Get("/placeholder/{integration}", func(w http.ResponseWriter, r *http.Request) {
			out, err := g.Placeholder(chi.URLParam(r, "integration"))
			if errors.Is(err, integrations.ErrUnknownIntegration) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
				return
			}
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
				return
			}
			writeHTML(w, http.StatusOK, out)
		})
	})

	router.With(p.Middleware()).Handle("/*", proxy(logger, upstream))

	return router
}

// proxy forwards to upstream. Accept-Encoding is dropped so HTML arrives
// uncompressed and can be rewritten.
func proxy(logger hclog.Logger, upstream *url.URL) http.Handler {
	if upstream == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, ErrNoUpstream.Error(), http.StatusBadGateway)
		})
	}

	rp := httputil.NewSingleHostReverseProxy(upstream)
	director := rp.Director
	rp.Director = func(r *http.Request) {
		director(r)
		r.Header.Del("Accept-Encoding")
	}
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream request failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
	return rp
}

func accessLog(logger hclog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
