package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"fix-gateway/internal/domain"
)

// KafkaConfig 为 Kafka 投递配置。
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 将事件信封写入 Kafka，同一分区键的事件保持顺序。
type KafkaSink struct {
	writer messageWriter
	topic  string
}

func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("bus: kafka brokers 不能为空")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("bus: kafka topic 不能为空")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaSink{writer: writer, topic: cfg.Topic}, nil
}

func (s *KafkaSink) Name() string { return "kafka" }

// Handle 序列化并同步写入一条消息。
func (s *KafkaSink) Handle(ctx context.Context, event domain.Event) error {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("bus: 序列化信封失败: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(envelope.Key),
		Value: value,
		Time:  envelope.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(envelope.Kind)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("bus: 写入 kafka 失败: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
