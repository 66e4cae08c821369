package service

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"planet-permission-service/internal/api"
	"planet-permission-service/internal/cache"
	"planet-permission-service/internal/config"
	"planet-permission-service/internal/kafka/notifier"
	"planet-permission-service/internal/metrics"
	"planet-permission-service/internal/repository"
	"planet-permission-service/internal/utils/grpczap"
)

func RunServices(ctx context.Context, logger *zap.SugaredLogger, wg *sync.WaitGroup, cfg *config.Config,
	repo repository.Repository, c cache.Cache, notif notifier.Notifier, m *metrics.Metrics) {

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		logger.Fatalw("failed to listen", "error", err)
	}

	s := newServer(logger, cfg.Development)

	api.RegisterPermissionServiceServer(s, newPermissionService(logger, repo, c, notif, m))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	logger.Infow("listening for gRPC requests", "port", cfg.GRPCPort)

	go func() {
		if err := s.Serve(lis); err != nil {
			logger.Fatalw("failed to serve", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		healthServer.Shutdown()
		s.GracefulStop()
	}()
}

func newServer(logger *zap.SugaredLogger, development bool) *grpc.Server {
	opts := []logging.Option{
		logging.WithLogOnEvents(logging.StartCall, logging.FinishCall),
	}

	recoveryOpts := []recovery.Option{
		recovery.WithRecoveryHandler(func(p any) error {
			logger.Errorw("recovered from panic", "panic", p)
			return status.Error(codes.Internal, "internal error")
		}),
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		logging.UnaryServerInterceptor(grpczap.InterceptorLogger(logger.Desugar()), opts...),
		recovery.UnaryServerInterceptor(recoveryOpts...),
	))

	if development {
		reflection.Register(s)
	}
	return s
}
