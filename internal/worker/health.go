package worker

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name the worker reports under.
const HealthService = "pipetask.worker"

// NewHealthServer returns a gRPC server exposing the standard health service
// and the handle used to flip the worker's serving status.
func NewHealthServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return srv, hs
}

func MarkServing(hs *health.Server) {
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
}

func MarkNotServing(hs *health.Server) {
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
}
