package health

import (
	"context"
	"fmt"
	"time"
)

// PingFunc performs the actual liveness probe (typically a HealthCheck RPC)
// and reports whether the remote responded successfully.
type PingFunc func(ctx context.Context) error

// GRPCChecker performs a health check by invoking a caller-supplied RPC.
// Unlike HTTP or TCP checks it does not know how to dial on its own — the
// replica client already owns the connection, so the checker just wraps
// whatever call the client exposes as a HealthCheck.
type GRPCChecker struct {
	// Name identifies the target being checked, for log/metric labels.
	Name string

	// Ping performs one round-trip health probe.
	Ping PingFunc
}

// NewGRPCChecker creates a checker around an existing RPC client method.
func NewGRPCChecker(name string, ping PingFunc) *GRPCChecker {
	return &GRPCChecker{Name: name, Ping: ping}
}

// Check performs the health check.
func (g *GRPCChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if err := g.Ping(ctx); err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("%s: %v", g.Name, err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("%s: ok", g.Name),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the health check type.
func (g *GRPCChecker) Type() CheckType {
	return CheckTypeGRPC
}
