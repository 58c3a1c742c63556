// Package httpfront implements the HTTP/1.1 front end: greeting, model
// metadata, and image detection over gorilla/mux routing.
package httpfront

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/dispatch"
)

// readTimeout bounds how long a client may take to deliver one request.
// It lives on the net/http.Server since net/http has no per-request read
// deadline hook a gorilla/mux handler can reach after routing.
const readTimeout = 30 * time.Second

// Server is the HTTP front end. It owns no engines directly; every
// request it handles is routed through Dispatcher.
type Server struct {
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
	http       *http.Server
}

// New builds a Server bound to addr ("ip:port"), routing detection
// requests through d.
func New(addr string, d *dispatch.Dispatcher, log *slog.Logger) *Server {
	s := &Server{dispatcher: d, log: log}
	r := mux.NewRouter()
	r.SkipClean(true)
	r.Use(requestLogger(log))
	r.HandleFunc("/", s.handleGreeting).Methods(http.MethodGet)
	r.HandleFunc("/metadata", s.handleMetadata).Methods(http.MethodGet)
	r.HandleFunc("/inference", s.handleInference("")).Methods(http.MethodPost)
	r.HandleFunc("/inference/{device}", s.handleInferenceWithDevice).Methods(http.MethodPost)
	for _, target := range []string{"/", "/metadata", "/inference", "/inference/{device}"} {
		r.HandleFunc(target, s.handleHead).Methods(http.MethodHead)
	}
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	s.http = &http.Server{
		Addr:        addr,
		Handler:     validateMethod(validateTarget(r)),
		ReadTimeout: readTimeout,
	}
	return s
}

// validateMethod rejects any method outside GET/HEAD/POST unconditionally,
// before mux ever resolves the target. Checking the target first would let
// an unrecognized path on a bad method (e.g. DELETE /foobar) fall through
// to mux's NotFoundHandler instead of this 400; the method check always
// comes first, independent of whether the path is known.
func validateMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodPost:
			next.ServeHTTP(w, r)
		default:
			writePlainText(w, http.StatusBadRequest, "Unknown HTTP-method")
		}
	})
}

// validateTarget rejects a request-target that doesn't start with "/" or
// that contains "..", before gorilla/mux ever sees it (SkipClean(true)
// above means mux won't silently normalize it first).
func validateTarget(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !strings.HasPrefix(path, "/") || strings.Contains(path, "..") {
			writePlainText(w, http.StatusBadRequest, "Illegal request-target")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe starts accepting connections; it blocks until the
// server is shut down or fails to bind. A bind failure is a
// configuration problem (bad address, port in use) and is reported as
// one.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return apperr.NewConfigError("http listen on %q: %v", s.http.Addr, err)
	}
	if s.log != nil {
		s.log.Info("http front end listening", "addr", s.http.Addr)
	}
	return s.http.Serve(lis)
}

// Shutdown gracefully stops the server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// notFound serves a well-formed but unrecognized request-target.
func notFound(w http.ResponseWriter, r *http.Request) {
	writePlainText(w, http.StatusNotFound, "Not found")
}

// methodNotAllowed fires when a GET, HEAD or POST reaches a recognized
// target that does not serve that method (e.g. GET /inference); methods
// outside GET/HEAD/POST never get here, validateMethod rejects them first.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writePlainText(w, http.StatusBadRequest, "Unknown HTTP-method")
}
