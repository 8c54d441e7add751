package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fix-gateway/internal/app"
	"fix-gateway/internal/config"
	"fix-gateway/internal/log"
	"fix-gateway/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	sqliteStore, err := store.NewSQLite(cfg.Database)
	if err != nil {
		logger.Error("初始化数据库失败", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := sqliteStore.Close(); closeErr != nil {
			logger.Warn("关闭数据库失败", zap.Error(closeErr))
		}
	}()

	gatewayApp, err := app.New(cfg, logger, sqliteStore)
	if err != nil {
		logger.Error("装配网关失败", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gatewayApp.Run(ctx); err != nil {
		logger.Error("网关运行异常", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("网关已安全退出")
}
