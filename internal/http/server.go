// Package http exposes the ledger controller as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"

	"homeledger/internal/app"
	"homeledger/internal/log"
	"homeledger/internal/middleware/ratelimit"
	"homeledger/internal/middleware/security"
	"homeledger/internal/middleware/trace"
)

// ReadyChecker reports whether the backing store is reachable.
type ReadyChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	controller *app.Controller
	ready      ReadyChecker

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// ready may be nil; /readyz then only reports process liveness.
func NewServer(addr string, controller *app.Controller, ready ReadyChecker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		controller: controller,
		ready:      ready,
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:   security.NewDetector(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/day", s.handleDay)
	mux.HandleFunc("/api/day/entry", s.handleDayEntry)
	mux.HandleFunc("/api/day/save", s.handleDaySave)
	mux.HandleFunc("/api/day/navigate", s.handleDayNavigate)
	mux.HandleFunc("/api/day/date", s.handleDayDate)
	mux.HandleFunc("/api/month-total", s.handleMonthTotal)
	mux.HandleFunc("/api/notices", s.handleNotices)
	mux.HandleFunc("/api/notices/dismiss", s.handleNoticeDismiss)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)
	httpLogger := log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)

	var handler http.Handler = mux
	handler = s.limitMutations(limited, handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = log.Middleware(httpLogger)(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// limitMutations applies the rate limiter to state-changing requests only;
// reads stay unthrottled.
func (s *Server) limitMutations(limited func(http.Handler) http.Handler, next http.Handler) http.Handler {
	guarded := limited(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			guarded.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ping(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
