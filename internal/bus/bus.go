// Package bus 提供进程内的有序事件总线，以及可选的外部投递目标。
package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"fix-gateway/internal/domain"
	"fix-gateway/internal/metrics"
)

var ErrClosed = errors.New("bus: closed")

const defaultBuffer = 4096

// Publisher 为事件发布方使用的接口。
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Sink 为事件的下游消费者，按发布顺序逐个调用。
type Sink interface {
	Name() string
	Handle(ctx context.Context, event domain.Event) error
}

// Bus 为有界队列加单一消费者，事件按发布顺序投递到每个 Sink。
type Bus struct {
	ch      chan domain.Event
	done    chan struct{}
	closed  uint32
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ Publisher = (*Bus)(nil)

func New(buffer int, m *metrics.Metrics, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		ch:      make(chan domain.Event, buffer),
		done:    make(chan struct{}),
		metrics: m,
		logger:  logger,
	}
}

// Subscribe 注册 Sink，须在 Run 之前调用。
func (b *Bus) Subscribe(sink Sink) {
	b.sinks = append(b.sinks, sink)
}

// Publish 入队事件，队列满时阻塞直到有空位、ctx 结束或总线关闭。
func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	if atomic.LoadUint32(&b.closed) != 0 {
		return ErrClosed
	}
	select {
	case b.ch <- event:
		b.metrics.EventPublished(string(event.Kind()))
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run 消费事件直到 ctx 结束，退出前投递已入队的事件。
func (b *Bus) Run(ctx context.Context) error {
	defer close(b.done)
	b.logger.Info("事件总线已启动", zap.Int("sinks", len(b.sinks)))
	for {
		select {
		case <-ctx.Done():
			atomic.StoreUint32(&b.closed, 1)
			b.drain()
			b.logger.Info("事件总线已停止")
			return nil
		case event := <-b.ch:
			b.dispatch(ctx, event)
		}
	}
}

func (b *Bus) drain() {
	// ctx 已结束，使用独立上下文完成剩余投递。
	ctx := context.Background()
	for {
		select {
		case event := <-b.ch:
			b.dispatch(ctx, event)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, event domain.Event) {
	for _, sink := range b.sinks {
		if err := sink.Handle(ctx, event); err != nil {
			b.metrics.SinkFailed(sink.Name())
			b.logger.Warn("事件投递失败",
				zap.String("sink", sink.Name()),
				zap.String("kind", string(event.Kind())),
				zap.Error(err))
		}
	}
}
