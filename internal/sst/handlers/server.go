// Package handlers provides the gRPC and HTTP servers of the SST service,
// bridging the transport layer and the compliance workflow and translating
// between JSON payloads and domain models.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/globalled/sst/internal/sst/auth"
	"github.com/globalled/sst/internal/sst/metrics"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const requestIDHeader = "X-Request-ID"

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
// The gRPC server carries the standard health service.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	s := &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       health.NewServer(),
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

type route struct {
	method  string
	path    string
	handler runtime.HandlerFunc
}

func (h *ComplianceHandler) routes() []route {
	return []route{
		{http.MethodPost, "/api/auth/login", h.Login},
		{http.MethodGet, "/api/auth/me", h.Me},
		{http.MethodGet, "/api/companies", h.ListCompanies},
		{http.MethodPost, "/api/companies", h.CreateCompany},
		{http.MethodGet, "/api/employees", h.ListEmployees},
		{http.MethodPost, "/api/employees", h.CreateEmployee},
		{http.MethodPost, "/api/exams", h.CreateExam},
		{http.MethodGet, "/api/exams/pending", h.ListPendingExams},
		{http.MethodPost, "/api/accidents", h.CreateAccident},
		{http.MethodGet, "/api/accidents/pending", h.ListPendingAccidents},
		{http.MethodGet, "/api/dashboard", h.Dashboard},
		{http.MethodGet, "/healthz", h.Health},
	}
}

// NewHTTPHandler builds the full HTTP stack: the routed API behind the bearer
// token guard, request metrics and request logging.
func NewHTTPHandler(h *ComplianceHandler, jwtSecret string, logger *zap.Logger) (http.Handler, error) {
	mux := runtime.NewServeMux(runtime.WithRoutingErrorHandler(routingErrorHandler))

	routes := h.routes()
	paths := make([]string, 0, len(routes)+1)
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.path, rt.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", rt.method, rt.path, err)
		}
		paths = append(paths, rt.path)
	}

	m := metrics.New(append(paths, "/metrics")...)
	promHandler := m.Handler()
	if err := mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		promHandler.ServeHTTP(w, r)
	}); err != nil {
		return nil, fmt.Errorf("failed to register metrics endpoint: %w", err)
	}

	guarded := auth.HTTPMiddleware(mux, jwtSecret, logger)
	return requestLogger(m.Instrument(guarded), logger), nil
}

// RegisterHTTPHandler installs the API on the HTTP server.
func (s *Server) RegisterHTTPHandler(h *ComplianceHandler, jwtSecret string) error {
	handler, err := NewHTTPHandler(h, jwtSecret, s.logger)
	if err != nil {
		return err
	}
	s.httpServer.Handler = handler
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// MonitorHealth reports the gRPC health status from periodic datastore
// pings until ctx is done.
func (s *Server) MonitorHealth(ctx context.Context, db Pinger, interval time.Duration) {
	check := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := db.Ping(ctx); err != nil {
			s.logger.Warn("Datastore health check failed", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus("", status)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	if s.httpServer.Handler == nil {
		return fmt.Errorf("HTTP handler not registered")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Servers stopped")
}

func routingErrorHandler(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, _ *http.Request, httpStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(envelope{"success": false, "message": http.StatusText(httpStatus)})
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(next http.Handler, logger *zap.Logger) http.Handler {
	logger = logger.Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("Request served",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
