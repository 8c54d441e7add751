package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fix-gateway/internal/config"
	"fix-gateway/internal/gateway"
	"fix-gateway/internal/store"
)

const shutdownTimeout = 10 * time.Second

// App 聚合核心依赖并驱动网关生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	parts  *components
}

// New 创建 App 实例并完成组件装配。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parts, err := wire(cfg, logger, store)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		parts:  parts,
	}, nil
}

// Gateway 返回网关门面，供嵌入方下达命令。
func (a *App) Gateway() *gateway.Gateway {
	return a.parts.gateway
}

// Run 启动执行器、事件总线、连接调度与监控接口，直到 ctx 结束。
// 退出时先断开会话，再依次停止执行器与事件总线，已入队的事件仍会投递。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("FIX 网关已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("broker", a.cfg.Broker.Name),
		zap.String("venue", a.cfg.Broker.Venue),
		zap.Int("symbols", len(a.cfg.Symbols)),
	)

	execCtx, stopExecutor := context.WithCancel(context.Background())
	defer stopExecutor()
	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()

	group, groupCtx := errgroup.WithContext(ctx)

	execDone := make(chan struct{})
	group.Go(func() error {
		defer close(execDone)
		return a.parts.executor.Run(execCtx)
	})
	group.Go(func() error {
		return a.parts.bus.Run(busCtx)
	})

	if a.cfg.Gateway.SubscribeAllOnStart {
		if err := a.parts.gateway.MarketDataSubscribeAll(groupCtx); err != nil {
			a.logger.Warn("登记全部行情订阅失败", zap.Error(err))
		}
	}

	if a.cfg.Monitor.Enabled {
		if err := startMonitorServer(groupCtx, a.parts.journal, a.parts.metrics, a.parts.gateway, a.store,
			a.cfg.Monitor.Port, a.logger); err != nil {
			return err
		}
	}

	group.Go(func() error {
		if !a.cfg.Schedule.Enabled {
			return a.connectOnce(groupCtx)
		}
		scheduler, err := newScheduler(a.cfg.Schedule, a.parts.gateway, a.parts.journal, a.logger.Named("scheduler"))
		if err != nil {
			return err
		}
		return scheduler.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		a.shutdown(stopExecutor, execDone, stopBus)
		return nil
	})

	err := group.Wait()
	if a.parts.kafka != nil {
		if closeErr := a.parts.kafka.Close(); closeErr != nil {
			a.logger.Warn("关闭 Kafka 写入器失败", zap.Error(closeErr))
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("网关异常退出: %w", err)
	}
	a.logger.Info("网关已停止")
	return nil
}

// connectOnce 未启用调度时启动即连接，之后由引擎负责重连。
func (a *App) connectOnce(ctx context.Context) error {
	if err := a.parts.gateway.Connect(ctx); err != nil {
		a.logger.Error("连接经纪商失败", zap.Error(err))
		a.parts.journal.RecordError(ctx, "连接经纪商失败", err, nil)
	}
	<-ctx.Done()
	return nil
}

func (a *App) shutdown(stopExecutor context.CancelFunc, execDone <-chan struct{}, stopBus context.CancelFunc) {
	a.logger.Info("网关收到退出信号，正在停止")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.parts.gateway.Disconnect(ctx); err != nil {
		a.logger.Warn("断开会话失败", zap.Error(err))
	}

	stopExecutor()
	select {
	case <-execDone:
	case <-ctx.Done():
		a.logger.Warn("等待执行器退出超时")
	}
	stopBus()
}
