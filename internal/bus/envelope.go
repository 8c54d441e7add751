package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fix-gateway/internal/domain"
)

// Envelope 为事件在总线之外的序列化形式，供 Kafka 与事件日志使用。
type Envelope struct {
	ID         uuid.UUID        `json:"id"`
	Kind       domain.EventKind `json:"kind"`
	Key        string           `json:"key"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    json.RawMessage  `json:"payload"`
}

// NewEnvelope 序列化事件。
func NewEnvelope(event domain.Event) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("bus: 序列化事件失败: %w", err)
	}
	return Envelope{
		ID:         event.EventID(),
		Kind:       event.Kind(),
		Key:        PartitionKey(event),
		OccurredAt: event.OccurredAt().UTC(),
		Payload:    payload,
	}, nil
}

// PartitionKey 订单事件按根订单编号分区，保证同一订单的事件有序；
// 其余事件按标的或类型分区。
func PartitionKey(event domain.Event) string {
	switch e := event.(type) {
	case domain.OrderEvent:
		return string(e.Ref().OrderID)
	case domain.InstrumentUpdated:
		return e.Instrument.Symbol.String()
	case domain.QuoteTickReceived:
		return e.Tick.Symbol.String()
	case domain.PositionReported:
		return e.Position.Symbol.String()
	case domain.AccountStateUpdated:
		return e.Account.AccountID
	default:
		return string(event.Kind())
	}
}
