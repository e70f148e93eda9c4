package httpapi

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"motordesk.io/internal/obs"
)

// HealthGRPC serves the standard gRPC health protocol backed by the same
// readiness probe as /readyz, for load balancers that speak gRPC.
type HealthGRPC struct {
	server *grpc.Server
	health *health.Server
	probe  ReadyProbe
	stop   chan struct{}
}

func NewHealthGRPC(probe ReadyProbe) *HealthGRPC {
	h := &HealthGRPC{
		server: grpc.NewServer(),
		health: health.NewServer(),
		probe:  probe,
		stop:   make(chan struct{}),
	}
	healthpb.RegisterHealthServer(h.server, h.health)
	return h
}

// Serve runs the listener and keeps the reported status in sync with the
// readiness probe until Stop is called.
func (h *HealthGRPC) Serve(lis net.Listener) error {
	go h.watch()
	return h.server.Serve(lis)
}

func (h *HealthGRPC) watch() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	h.update()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.update()
		}
	}
}

func (h *HealthGRPC) update() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.probe.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		obs.SetReady(false)
	} else {
		obs.SetReady(true)
	}
	h.health.SetServingStatus("", status)
}

// Stop halts the status updater and drains the server.
func (h *HealthGRPC) Stop() {
	close(h.stop)
	h.server.GracefulStop()
}
