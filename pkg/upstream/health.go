package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// SidecarHealthChecker polls the gateway's gRPC health surface. It is
// orthogonal to HTTPClient (which carries the actual three primitives);
// it only reports the gateway's health and never blocks a Client call.
type SidecarHealthChecker struct {
	conn   *grpc.ClientConn
	client grpc_health_v1.HealthClient
}

// NewSidecarHealthChecker dials addr (no TLS; the gateway runs as a
// sidecar on the same pod network).
func NewSidecarHealthChecker(addr string) (*SidecarHealthChecker, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway sidecar: %w", err)
	}
	return &SidecarHealthChecker{conn: conn, client: grpc_health_v1.NewHealthClient(conn)}, nil
}

// Close closes the underlying gRPC connection.
func (h *SidecarHealthChecker) Close() error {
	return h.conn.Close()
}

// Check returns nil if the gateway reports SERVING, otherwise an error
// describing the reported (or failed-to-fetch) status.
func (h *SidecarHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := h.client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("gateway health check failed: %w", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("gateway not serving: %s", resp.Status)
	}
	return nil
}

// WatchUntilReady polls Check every interval until it succeeds or ctx is
// done, logging a warning on each failed attempt.
func (h *SidecarHealthChecker) WatchUntilReady(ctx context.Context, interval time.Duration) error {
	for {
		if err := h.Check(ctx); err == nil {
			return nil
		} else {
			slog.Warn("gateway sidecar not ready", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
