package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"planet-permission-service/internal/cache"
	"planet-permission-service/internal/config"
	"planet-permission-service/internal/kafka/notifier"
	"planet-permission-service/internal/metrics"
)

const (
	initialRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 30 * time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Listener drops local cache entries when another instance publishes a change.
type Listener struct {
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
	cache   cache.Cache
	r       messageReader

	retryBackoff time.Duration
}

// NewKafkaListener starts consuming in the background. Each instance joins its
// own consumer group so that every instance sees every event.
func NewKafkaListener(ctx context.Context, wg *sync.WaitGroup, logger *zap.SugaredLogger, m *metrics.Metrics,
	cfg config.KafkaConfig, c cache.Cache) *Listener {

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		GroupID:     "planet-permission-cache-" + uuid.NewString(),
		Topic:       cfg.Topic,
		StartOffset: kafka.LastOffset,
		ErrorLogger: zap.NewStdLog(logger.Desugar()),
	})

	l := newListener(logger, m, c, r)

	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Run(ctx)
	}()

	return l
}

func newListener(logger *zap.SugaredLogger, m *metrics.Metrics, c cache.Cache, r messageReader) *Listener {
	return &Listener{
		logger:  logger,
		metrics: m,
		cache:   c,
		r:       r,

		retryBackoff: initialRetryBackoff,
	}
}

// Run blocks until ctx is cancelled or the reader is closed. Fetch errors are
// retried with an exponential backoff, since a stopped listener would leave
// this instance's cache stale.
func (l *Listener) Run(ctx context.Context) {
	defer func() {
		if err := l.r.Close(); err != nil {
			l.logger.Errorw("failed to close kafka reader", "error", err)
		}
	}()

	backoff := l.retryBackoff
	for {
		msg, err := l.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				l.logger.Info("shutting down kafka listener")
				return
			}
			l.logger.Errorw("failed to fetch message, retrying", "error", err, "backoff", backoff)

			select {
			case <-ctx.Done():
				l.logger.Info("shutting down kafka listener")
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxRetryBackoff)
			continue
		}
		backoff = l.retryBackoff

		if err := l.Handle(ctx, msg); err != nil {
			l.logger.Warnw("failed to handle message", "error", err, "offset", msg.Offset)
		}

		if err := l.r.CommitMessages(ctx, msg); err != nil {
			l.logger.Errorw("failed to commit message", "error", err, "offset", msg.Offset)
		}
	}
}

// Handle applies one event. Events that do not affect cached data are ignored.
func (l *Listener) Handle(ctx context.Context, msg kafka.Message) error {
	messageType := messageType(msg)

	switch messageType {
	case notifier.MemberRolesUpdateType:
		var update notifier.MemberRolesUpdateMessage
		if err := json.Unmarshal(msg.Value, &update); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", messageType, err)
		}
		if err := l.cache.InvalidateMemberRoles(ctx, update.PlanetId, update.UserId); err != nil {
			return fmt.Errorf("failed to invalidate member roles: %w", err)
		}
	case notifier.PermissionsNodeUpdateType:
		var update notifier.PermissionsNodeUpdateMessage
		if err := json.Unmarshal(msg.Value, &update); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", messageType, err)
		}
		if err := l.cache.InvalidateNode(ctx, update.Key()); err != nil {
			return fmt.Errorf("failed to invalidate node: %w", err)
		}
	case "":
		return fmt.Errorf("message has no %s header", notifier.MessageTypeHeader)
	default:
		return nil
	}

	if l.metrics != nil {
		l.metrics.RecordEvent("consumed", messageType)
	}
	return nil
}

func messageType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == notifier.MessageTypeHeader {
			return string(h.Value)
		}
	}
	return ""
}
