package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/klauspost/compress/zstd"
	ants "github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/coffersTech/nanosearch/internal/config"
	"github.com/coffersTech/nanosearch/internal/engine"
	"github.com/coffersTech/nanosearch/internal/log"
	"github.com/coffersTech/nanosearch/internal/metric"
)

// Server is the HTTP front end of the query engine.
type Server struct {
	queryEngine *engine.QueryEngine
	cfg         config.Config
	apiKeys     [][]byte // bcrypt hashes; empty disables auth

	pool    *ants.Pool // batch compile workers
	parser  fastjson.ParserPool
	decoder *zstd.Decoder
	srv     *http.Server
}

// New creates a Server. Close releases its worker pool.
func New(qe *engine.QueryEngine, cfg config.Config) (*Server, error) {
	pool, err := ants.NewPool(cfg.Query.BatchWorkers)
	if err != nil {
		return nil, errors.Wrap(err, "create batch pool")
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(cfg.HTTP.MaxBodyBytes)))
	if err != nil {
		pool.Release()
		return nil, errors.Wrap(err, "create zstd decoder")
	}

	s := &Server{
		queryEngine: qe,
		cfg:         cfg,
		pool:        pool,
		decoder:     dec,
	}
	for _, h := range cfg.Auth.APIKeyHashes {
		s.apiKeys = append(s.apiKeys, []byte(h))
	}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
	}
	return s, nil
}

// Handler builds the routed, compressed and instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(metric.Registry, promhttp.HandlerOpts{}))

	// API routes (protected)
	mux.Handle("/api/compile", s.AuthMiddleware(http.HandlerFunc(s.handleCompile)))
	mux.Handle("/api/compile/batch", s.AuthMiddleware(http.HandlerFunc(s.handleCompileBatch)))
	mux.Handle("/api/field", s.AuthMiddleware(http.HandlerFunc(s.handleField)))
	mux.Handle("/api/ingest", s.AuthMiddleware(http.HandlerFunc(s.handleIngest)))
	mux.Handle("/api/search", s.AuthMiddleware(http.HandlerFunc(s.handleQuery)))
	mux.Handle("/api/histogram", s.AuthMiddleware(http.HandlerFunc(s.handleHistogram)))
	mux.Handle("/api/context", s.AuthMiddleware(http.HandlerFunc(s.handleContext)))
	mux.Handle("/api/stats", s.AuthMiddleware(http.HandlerFunc(s.handleStats)))

	return s.requestMiddleware(mux, gzhttp.GzipHandler(mux))
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv.Addr = addr
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Close releases the worker pool and decoder.
func (s *Server) Close() {
	s.pool.Release()
	s.decoder.Close()
}

// AuthMiddleware checks for a valid API key in the Authorization header
// or the token query parameter.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.apiKeys) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		var token string
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			token = r.URL.Query().Get("token")
		}

		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="nanosearch"`)
			http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
			return
		}

		for _, hash := range s.apiKeys {
			if bcrypt.CompareHashAndPassword(hash, []byte(token)) == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		log.Warnf(r.Context(), "rejected api key from %s", r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", `Bearer realm="nanosearch"`)
		http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
	})
}

// statusRecorder captures the response code for metrics and logs.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// requestMiddleware tags every request with an ID, logs it and counts it.
// routeLabel names the registered pattern that serves r, or "other", so
// request metrics stay bounded to the route set.
func routeLabel(mux *http.ServeMux, r *http.Request) string {
	if _, pattern := mux.Handler(r); pattern != "" {
		return pattern
	}
	return "other"
}

func (s *Server) requestMiddleware(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := log.With(r.Context(), zap.String("request_id", reqID))

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		metric.RequestInc(routeLabel(mux, r), strconv.Itoa(rec.code))
		log.Debugf(ctx, "%s %s %d %v", r.Method, r.URL.Path, rec.code, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
