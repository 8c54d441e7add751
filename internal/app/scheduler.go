package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fix-gateway/internal/config"
)

const minutesPerWeek = 7 * 24 * 60

// connector 为调度器驱动的连接开关。
type connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
}

// errorRecorder 记录调度过程中的异常。
type errorRecorder interface {
	RecordError(ctx context.Context, msg string, err error, ctxMap map[string]interface{})
}

// scheduler 按每周 UTC 窗口连接与断开经纪商，窗口内掉线时负责重新连接。
type scheduler struct {
	connect    config.Window
	disconnect config.Window
	interval   time.Duration
	target     connector
	recorder   errorRecorder
	now        func() time.Time
	logger     *zap.Logger

	engaged bool
}

func newScheduler(cfg config.ScheduleConfig, target connector, recorder errorRecorder, logger *zap.Logger) (*scheduler, error) {
	connect, err := cfg.ConnectWindow()
	if err != nil {
		return nil, err
	}
	disconnect, err := cfg.DisconnectWindow()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &scheduler{
		connect:    connect,
		disconnect: disconnect,
		interval:   interval,
		target:     target,
		recorder:   recorder,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// Run 立即检查一次，之后按间隔检查，直到 ctx 结束。
func (s *scheduler) Run(ctx context.Context) error {
	s.logger.Info("连接调度已启动",
		zap.Stringer("connect_day", s.connect.Day),
		zap.Stringer("disconnect_day", s.disconnect.Day),
		zap.Duration("interval", s.interval))

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *scheduler) tick(ctx context.Context) {
	now := s.now().UTC()
	if inWindow(now, s.connect, s.disconnect) {
		if s.target.IsConnected() {
			s.engaged = true
			return
		}
		if !s.engaged {
			s.logger.Info("进入交易窗口，连接经纪商", zap.Time("now", now))
		}
		s.engaged = true
		if err := s.target.Connect(ctx); err != nil {
			s.logger.Error("连接经纪商失败", zap.Error(err))
			s.record(ctx, "连接经纪商失败", err)
		}
		return
	}

	if !s.engaged && !s.target.IsConnected() {
		return
	}
	s.logger.Info("离开交易窗口，断开经纪商", zap.Time("now", now))
	s.engaged = false
	if err := s.target.Disconnect(ctx); err != nil {
		s.logger.Error("断开经纪商失败", zap.Error(err))
		s.record(ctx, "断开经纪商失败", err)
	}
}

func (s *scheduler) record(ctx context.Context, msg string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordError(ctx, msg, err, map[string]interface{}{"component": "scheduler"})
}

// inWindow 判断 t 是否位于 [connect, disconnect) 每周窗口内，窗口可跨越周末。
func inWindow(t time.Time, connect, disconnect config.Window) bool {
	now := weekMinute(int(t.Weekday()), t.Hour(), t.Minute())
	start := weekMinute(int(connect.Day), connect.Hour, connect.Minute)
	end := weekMinute(int(disconnect.Day), disconnect.Hour, disconnect.Minute)
	switch {
	case start == end:
		return true
	case start < end:
		return now >= start && now < end
	default:
		return now >= start || now < end
	}
}

func weekMinute(day, hour, minute int) int {
	return (day*24*60 + hour*60 + minute) % minutesPerWeek
}
