package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"planet-permission-service/internal/config"
	"planet-permission-service/internal/metrics"
	"planet-permission-service/internal/repository/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaNotifier struct {
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
	w       messageWriter
}

func NewKafkaNotifier(ctx context.Context, wg *sync.WaitGroup, logger *zap.SugaredLogger, m *metrics.Metrics,
	cfg config.KafkaConfig) Notifier {

	w := &kafka.Writer{
		Addr:        kafka.TCP(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		Topic:       cfg.Topic,
		Async:       true,
		Balancer:    &kafka.Hash{},
		ErrorLogger: zap.NewStdLog(logger.Desugar()),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		logger.Info("shutting down kafka writer")
		if err := w.Close(); err != nil {
			logger.Errorw("failed to close kafka writer", "error", err)
		}
	}()

	return newKafkaNotifier(logger, m, w)
}

func newKafkaNotifier(logger *zap.SugaredLogger, m *metrics.Metrics, w messageWriter) *kafkaNotifier {
	return &kafkaNotifier{
		logger:  logger,
		metrics: m,
		w:       w,
	}
}

func (k *kafkaNotifier) MemberRolesUpdate(ctx context.Context, msg *MemberRolesUpdateMessage) error {
	return k.publishMessage(ctx, MemberRolesUpdateType, msg.PlanetId.String(), msg)
}

func (k *kafkaNotifier) PermissionsNodeUpdate(ctx context.Context, msg *PermissionsNodeUpdateMessage) error {
	return k.publishMessage(ctx, PermissionsNodeUpdateType, msg.PlanetId.String(), msg)
}

func (k *kafkaNotifier) RoleUpdate(ctx context.Context, role *model.Role, changeType ChangeType) error {
	msg := &RoleUpdateMessage{Role: role, ChangeType: changeType}
	return k.publishMessage(ctx, RoleUpdateType, role.PlanetId.String(), msg)
}

func (k *kafkaNotifier) ChannelUpdate(ctx context.Context, channel *model.Channel, changeType ChangeType) error {
	msg := &ChannelUpdateMessage{Channel: channel, ChangeType: changeType}
	return k.publishMessage(ctx, ChannelUpdateType, channel.PlanetId.String(), msg)
}

// publishMessage keys every event by planet so one planet's events stay ordered
// on a single partition.
func (k *kafkaNotifier) publishMessage(ctx context.Context, messageType string, planetId string, message any) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := k.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(planetId),
		Value:   bytes,
		Headers: []kafka.Header{{Key: MessageTypeHeader, Value: []byte(messageType)}},
	}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if k.metrics != nil {
		k.metrics.RecordEvent("published", messageType)
	}
	return nil
}
