// Package api exposes the download service over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bmizerany/pat"
	"github.com/rcrowley/go-metrics"
	"github.com/urfave/negroni"
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/internal/config"
)

// A Server wires the orchestrator, the configuration provider and the backend
// registry to the HTTP surface. It holds no per-request state; configuration
// is re-read from disk on every request that needs it.
type Server struct {
	cfg      *config.Provider
	orch     *godownloader.Orchestrator
	registry *godownloader.Registry
	metrics  metrics.Registry
	log      *zap.SugaredLogger
}

func NewServer(cfg *config.Provider, orch *godownloader.Orchestrator, registry *godownloader.Registry, reg metrics.Registry, logger *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		orch:     orch,
		registry: registry,
		metrics:  reg,
		log:      logger.Sugar().Named("api"),
	}
}

// Handler assembles the full middleware and routing stack.
func (s *Server) Handler() http.Handler {
	m := pat.New()
	m.Post("/save", http.HandlerFunc(s.saveFromBody))
	m.Post("/download", http.HandlerFunc(s.streamFromBody))
	m.Get("/files", http.HandlerFunc(s.listFiles))
	m.Get("/files/:filename", http.HandlerFunc(s.fileInfo))
	m.Del("/files/:filename", http.HandlerFunc(s.deleteFile))
	m.Get("/health", http.HandlerFunc(s.health))
	m.Get("/admin/metrics", http.HandlerFunc(s.adminMetrics))

	n := negroni.New(negroni.NewRecovery(), s.requestLogger())
	n.UseHandler(&rootMux{server: s, fallback: m})
	return n
}

// rootMux routes the path-encoded GET variants, where the target URL is a
// percent-encoded suffix of the request path. Those cannot go through the
// pattern router: the router sees the decoded path, and a decoded URL brings
// its own slashes.
type rootMux struct {
	server   *Server
	fallback http.Handler
}

func (m *rootMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		escaped := r.URL.EscapedPath()
		switch {
		case strings.HasPrefix(escaped, "/save/"):
			m.server.saveFromPath(w, r)
			return
		case strings.HasPrefix(escaped, "/download/"):
			m.server.streamFromPath(w, r)
			return
		case r.URL.Path == "/":
			m.server.status(w, r)
			return
		}
	}
	m.fallback.ServeHTTP(w, r)
}

func (s *Server) requestLogger() negroni.HandlerFunc {
	log := s.log.Named("http")
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		start := time.Now()
		next(w, r)
		elapsed := time.Since(start)

		res := w.(negroni.ResponseWriter)
		metrics.GetOrRegisterTimer("http.requests", s.metrics).Update(elapsed)
		log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", res.Status(),
			"size", res.Size(),
			"duration", elapsed,
		)
	}
}

func (s *Server) mark(endpoint string) {
	metrics.GetOrRegisterMeter("api."+endpoint+".requests", s.metrics).Mark(1)
}

// adminMetrics dumps a snapshot of every registered metric. The registry
// knows how to marshal itself, one object per metric name.
func (s *Server) adminMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(s.metrics)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail is the shape of non-envelope failures: a status code and a
// human-readable detail string.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Errorf("internal error: %v", err)
	writeDetail(w, http.StatusInternalServerError, "internal server error")
}
