package grpcserver

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"photoShare/internal/auth"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// NewServer builds a gRPC server exposing the photo service and health checks.
// Everything except login and health goes through the auth interceptor.
func NewServer(gate Gate, feed Feed, log logrus.FieldLogger) *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(gate, log, healthCheckMethod, IssueTokenMethod)),
	)
	RegisterPhotoServiceServer(srv, &Server{Gate: gate, Feed: feed, Log: log})

	hsrv := health.NewServer()
	hsrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hsrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hsrv)
	return srv
}

// StartGRPC listens on addr and serves in the background. The returned
// function stops the server gracefully, forcing it once ctx is done.
func StartGRPC(addr string, gate Gate, feed Feed, log logrus.FieldLogger) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := NewServer(gate, feed, log)
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.WithError(err).Error("grpc serve")
		}
	}()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
