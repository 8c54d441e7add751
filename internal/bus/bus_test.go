package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fix-gateway/internal/domain"
)

type collectingSink struct {
	mu     sync.Mutex
	name   string
	events []domain.Event
	err    error
}

func (s *collectingSink) Name() string { return s.name }

func (s *collectingSink) Handle(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *collectingSink) snapshot() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

func cancelled(id string) domain.Event {
	return domain.OrderCancelled{
		EventHeader: domain.NewHeader(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		OrderRef:    domain.OrderRef{OrderID: domain.OrderID(id)},
	}
}

func TestBus_DeliversInPublishOrderToEverySink(t *testing.T) {
	b := New(8, nil, nil)
	first := &collectingSink{name: "first"}
	failing := &collectingSink{name: "failing", err: errors.New("down")}
	b.Subscribe(first)
	b.Subscribe(failing)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	for _, id := range []string{"O-1", "O-2", "O-3"} {
		require.NoError(t, b.Publish(ctx, cancelled(id)))
	}
	require.Eventually(t, func() bool { return len(first.snapshot()) == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	for i, want := range []string{"O-1", "O-2", "O-3"} {
		assert.Equal(t, domain.OrderID(want), first.snapshot()[i].(domain.OrderCancelled).OrderID)
	}
	assert.Len(t, failing.snapshot(), 3)
	assert.ErrorIs(t, b.Publish(context.Background(), cancelled("O-4")), ErrClosed)
}

func TestBus_DrainsQueuedEventsOnShutdown(t *testing.T) {
	b := New(8, nil, nil)
	sink := &collectingSink{name: "sink"}
	b.Subscribe(sink)

	require.NoError(t, b.Publish(context.Background(), cancelled("O-1")))
	require.NoError(t, b.Publish(context.Background(), cancelled("O-2")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Run(ctx))
	assert.Len(t, sink.snapshot(), 2)
}

func TestPartitionKey(t *testing.T) {
	audusd := domain.NewSymbol("AUDUSD", "FXCM")
	assert.Equal(t, "O-1", PartitionKey(cancelled("O-1")))
	assert.Equal(t, "AUDUSD.FXCM", PartitionKey(domain.QuoteTickReceived{Tick: domain.QuoteTick{Symbol: audusd}}))
	assert.Equal(t, "ACC", PartitionKey(domain.AccountStateUpdated{Account: domain.AccountState{AccountID: "ACC"}}))
	assert.Equal(t, string(domain.KindBrokerNotice), PartitionKey(domain.BrokerNotice{}))
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_WritesEnvelope(t *testing.T) {
	writer := &fakeWriter{}
	sink := &KafkaSink{writer: writer, topic: "fix.events"}

	event := domain.OrderFilled{
		EventHeader: domain.NewHeader(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		OrderRef:    domain.OrderRef{OrderID: "O-1", BrokerID: "B-1"},
		Execution: domain.Execution{
			ExecutionID:    "E-1",
			FilledQuantity: decimal.RequireFromString("100"),
			AveragePrice:   decimal.RequireFromString("1.2345"),
		},
	}
	require.NoError(t, sink.Handle(context.Background(), event))
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "O-1", string(msg.Key))

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, domain.KindOrderFilled, envelope.Kind)
	assert.Equal(t, event.ID, envelope.ID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "1.2345", payload["average_price"])
}

func TestNewKafkaSink_RequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{Topic: "t"})
	assert.Error(t, err)
	_, err = NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	sink, err := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", sink.Name())
	assert.NoError(t, sink.Close())
}
