// Package mock provides a canned-response HTTP server for exercising
// httpconnect clients and pipelines.
package mock

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// RecordedRequest is a request seen by the server. Gzip request bodies
// are stored decompressed.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Host     string
	Headers  http.Header
	Body     string
}

// Server is a mock HTTP server serving canned responses
type Server struct {
	mu       sync.RWMutex
	handler  http.Handler
	routes   []*Route
	recorded []RecordedRequest

	port   int
	delay  time.Duration
	logger *slog.Logger
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithLogger enables request logging
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new mock server
func NewServer(opts ...Option) *Server {
	s := &Server{
		port:    3000,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		handler: http.NotFoundHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// routeFile is the on-disk route format
type routeFile struct {
	Routes []*Route `yaml:"routes"`
}

// LoadRoutes reads routes from a YAML file
func LoadRoutes(path string) ([]*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf routeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse routes file %s: %w", path, err)
	}
	return rf.Routes, nil
}

// SetRoutes replaces all routes atomically
func (s *Server) SetRoutes(routes []*Route) error {
	router, err := newRouter(routes, s.respond)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = routes
	s.handler = router
	return nil
}

// Handle adds a single route
func (s *Server) Handle(method, path string, resp *MockResponse) error {
	s.mu.RLock()
	routes := append([]*Route(nil), s.routes...)
	s.mu.RUnlock()
	return s.SetRoutes(append(routes, &Route{Method: method, Path: path, Response: resp}))
}

// GetRoutes returns all registered routes
func (s *Server) GetRoutes() []*Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Route(nil), s.routes...)
}

// Requests returns the requests received so far
func (s *Server) Requests() []RecordedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RecordedRequest(nil), s.recorded...)
}

// LastRequest returns the most recent request, if any
func (s *Server) LastRequest() (RecordedRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.recorded) == 0 {
		return RecordedRequest{}, false
	}
	return s.recorded[len(s.recorded)-1], true
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := s.record(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	handler.ServeHTTP(rec, r)

	s.logger.Info("mock request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Duration("duration", time.Since(start)),
	)
}

func (s *Server) record(r *http.Request) error {
	var body []byte
	if r.Body != nil {
		var reader io.Reader = r.Body
		if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				return fmt.Errorf("invalid gzip request body: %w", err)
			}
			defer zr.Close()
			reader = zr
		}
		var err error
		body, err = io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Host:     r.Host,
		Headers:  r.Header.Clone(),
		Body:     string(body),
	})
	return nil
}

func (s *Server) respond(route *Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := route.Response

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if !resp.OmitContentType {
			contentType := resp.ContentType
			if contentType == "" {
				contentType = "application/json"
			}
			w.Header().Set("Content-Type", contentType)
		}

		body := resp.RawBody
		if body == nil {
			body = []byte(resolveBodyParams(resp.Body, r))
		}

		if resp.GZip {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write(body)
			_ = zw.Close()
			body = buf.Bytes()
			w.Header().Set("Content-Encoding", "gzip")
		}

		if resp.OmitContentType {
			// stop net/http from sniffing one
			w.Header()["Content-Type"] = nil
		}

		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

// StartWithContext listens on the configured port until ctx is done
func (s *Server) StartWithContext(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("mock server starting", slog.Int("port", s.port), slog.Int("routes", len(s.GetRoutes())))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
