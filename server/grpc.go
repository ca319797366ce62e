package server

import (
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ArenaService is the health service name reported next to the overall
// server status
const ArenaService = "arena.Game"

// HealthServer exposes the standard gRPC health protocol for orchestrators
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

// ListenHealth binds addr and registers the health service as serving
func ListenHealth(addr string) (*HealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ArenaService, healthpb.HealthCheckResponse_SERVING)
	return &HealthServer{grpc: srv, health: hs, lis: lis}, nil
}

// Addr returns the bound address
func (h *HealthServer) Addr() net.Addr {
	return h.lis.Addr()
}

// Serve blocks serving gRPC until Stop
func (h *HealthServer) Serve() error {
	log.Printf("gRPC health on %s", h.lis.Addr())
	if err := h.grpc.Serve(h.lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING and shuts the server down
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
