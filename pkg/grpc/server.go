// Package grpc serves the standard gRPC health service. Load balancers and
// orchestrators probe it; status follows a periodic MongoDB ping.
//
//	srv := grpc.New(func(ctx context.Context) error { return mongodb.Ping(ctx, client) })
//	lis, err := srv.Start(config.GRPCPort())
//	scheduler.Every("grpc:health", 10*time.Second, srv.Probe)
//	defer srv.Stop()
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/metrics"
)

// ServiceName is the health service name reported alongside the overall
// ("") status.
const ServiceName = "greatsoko.Storefront"

// Checker reports whether a backing dependency is reachable.
type Checker func(ctx context.Context) error

// Server wraps a grpc.Server carrying the health service.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	check  Checker
}

func New(check Checker) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, loggingInterceptor, metricsInterceptor),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
	)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{srv: srv, health: hs, check: check}
	s.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

// Start listens on port and serves in the background.
func (s *Server) Start(port string) (net.Listener, error) {
	addr := ":" + port
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}
	logger.Info("grpc: health server starting", "addr", addr)
	go func() {
		if err := s.Serve(lis); err != nil {
			logger.Error("grpc: serve error", "error", err)
		}
	}()
	return lis, nil
}

func (s *Server) Serve(lis net.Listener) error { return s.srv.Serve(lis) }

// Probe runs the checker once and publishes the result.
func (s *Server) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.check(ctx); err != nil {
		logger.Warn("grpc: health check failed", "error", err)
		s.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.set(grpc_health_v1.HealthCheckResponse_SERVING)
}

// Stop marks the service as shutting down and drains in-flight RPCs.
func (s *Server) Stop() {
	logger.Info("grpc: health server shutting down")
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func (s *Server) set(st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"code", status.Code(err).String(),
	)
	return resp, err
}

func metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	metrics.GRPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}
