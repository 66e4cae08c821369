package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"planet-permission-service/internal/cache"
	"planet-permission-service/internal/config"
	"planet-permission-service/internal/kafka/listener"
	"planet-permission-service/internal/kafka/notifier"
	"planet-permission-service/internal/metrics"
	"planet-permission-service/internal/repository"
	"planet-permission-service/internal/service"
)

func Run(cfg *config.Config, logger *zap.SugaredLogger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	wg := &sync.WaitGroup{}

	delayedCtx, repoCancel := context.WithCancel(context.Background())
	delayedWg := &sync.WaitGroup{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	repo, err := newRepository(delayedCtx, logger, delayedWg, cfg)
	if err != nil {
		logger.Fatalw("failed to create repository", "error", err)
	}

	c, err := newCache(delayedCtx, logger, delayedWg, cfg)
	if err != nil {
		logger.Fatalw("failed to create cache", "error", err)
	}

	notif := notifier.NewKafkaNotifier(delayedCtx, delayedWg, logger, m, cfg.Kafka)

	// A shared cache is invalidated by whichever instance made the write.
	if cfg.Cache.Backend == config.CacheMemory {
		listener.NewKafkaListener(ctx, wg, logger, m, cfg.Kafka, c)
	}

	metrics.Serve(ctx, wg, logger, registry, cfg.MetricsPort)
	service.RunServices(ctx, logger, wg, cfg, repo, c, notif, m)

	wg.Wait()
	logger.Info("shutting down")

	logger.Info("shutting down delayed services")
	repoCancel()
	delayedWg.Wait()
}

func newRepository(ctx context.Context, logger *zap.SugaredLogger, wg *sync.WaitGroup,
	cfg *config.Config) (repository.Repository, error) {

	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		return repository.NewPostgresRepository(ctx, logger, wg, cfg.Postgres)
	default:
		return repository.NewMongoRepository(ctx, logger, wg, cfg.MongoDB)
	}
}

func newCache(ctx context.Context, logger *zap.SugaredLogger, wg *sync.WaitGroup, cfg *config.Config) (cache.Cache, error) {
	if cfg.Cache.Backend != config.CacheRedis {
		return cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL), nil
	}

	c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
	if err != nil {
		return nil, err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := c.Close(); err != nil {
			logger.Errorw("failed to close redis client", "error", err)
		}
	}()
	return c, nil
}
