package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrExecutorClosed 表示执行器已停止，任务未被执行。
var ErrExecutorClosed = errors.New("session: executor closed")

const defaultExecutorBuffer = 1024

// Executor 按提交顺序逐个执行任务，网关的全部状态变更都在这里串行发生。
// 任务内不得再调用 Call，否则会死锁。
type Executor struct {
	tasks  chan func()
	done   chan struct{}
	logger *zap.Logger
}

func NewExecutor(buffer int, logger *zap.Logger) *Executor {
	if buffer <= 0 {
		buffer = defaultExecutorBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		tasks:  make(chan func(), buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post 提交任务后立即返回，供引擎回调使用。执行器已停止时返回 false。
func (e *Executor) Post(fn func()) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.tasks <- fn:
		return true
	case <-e.done:
		return false
	}
}

// Call 提交任务并等待其结果，供网关命令使用。
// 任务开始前 ctx 已结束时不再执行，调用方收到的错误与实际行为一致。
func (e *Executor) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}
		result <- fn()
	}

	select {
	case e.tasks <- task:
	case <-e.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-e.done:
		// 执行器退出前可能已经执行完该任务。
		select {
		case err := <-result:
			return err
		default:
			return ErrExecutorClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run 在当前 goroutine 上消费任务直到 ctx 结束。
func (e *Executor) Run(ctx context.Context) error {
	defer close(e.done)
	e.logger.Info("会话执行器已启动", zap.Int("buffer", cap(e.tasks)))
	for {
		select {
		case <-ctx.Done():
			e.drain()
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("session: 执行器异常退出: %w", err)
			}
			e.logger.Info("会话执行器已停止")
			return nil
		case task := <-e.tasks:
			task()
		}
	}
}

// drain 执行退出前已入队的任务，保证已接收的事件仍被投递。
func (e *Executor) drain() {
	for {
		select {
		case task := <-e.tasks:
			task()
		default:
			return
		}
	}
}
