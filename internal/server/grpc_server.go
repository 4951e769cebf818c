package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/pahilobhet/internal/app"
)

const healthInterval = 15 * time.Second

// NewGRPCServer returns a server exposing grpc.health.v1 and reflection.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer, hs
}

// UpdateHealth sets the overall serving status from DB and Redis reachability.
func UpdateHealth(ctx context.Context, appCtx *app.AppContext, hs *health.Server) {
	st := healthpb.HealthCheckResponse_SERVING
	for name, err := range checkDeps(ctx, appCtx) {
		if err != nil {
			appCtx.Logger.Warn("dependency unhealthy", "dep", name, "err", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	hs.SetServingStatus("", st)
}

// StartGRPCServer serves health and reflection until ctx is canceled.
func StartGRPCServer(ctx context.Context, appCtx *app.AppContext) error {
	addr := fmt.Sprintf("%s:%s", appCtx.Config.GRPC.Host, appCtx.Config.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer, hs := NewGRPCServer()
	UpdateHealth(ctx, appCtx, hs)

	go func() {
		t := time.NewTicker(healthInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				hs.Shutdown()
				grpcServer.GracefulStop()
				return
			case <-t.C:
				UpdateHealth(ctx, appCtx, hs)
			}
		}
	}()

	appCtx.Logger.Info("starting gRPC server", "addr", addr)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc server on %s: %w", addr, err)
	}
	return nil
}
