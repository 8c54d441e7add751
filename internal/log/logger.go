package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fix-gateway/internal/config"
)

const serviceName = "fix-gateway"

// NewLogger 根据配置创建 zap.Logger。
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		return nil, fmt.Errorf("解析日志级别失败: %w", err)
	}

	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stdout"}
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	encoding := strings.ToLower(cfg.Encoding)
	if encoding == "" {
		encoding = "console"
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig(encoding),
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
		InitialFields:    map[string]interface{}{"service": serviceName},
	}

	logger, err := zapCfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("创建日志实例失败: %w", err)
	}

	return logger, nil
}

// encoderConfig json 输出不带颜色，便于日志采集。
func encoderConfig(encoding string) zapcore.EncoderConfig {
	base := zap.NewProductionEncoderConfig()

	levelEncoder := zapcore.CapitalColorLevelEncoder
	if encoding == "json" {
		levelEncoder = zapcore.CapitalLevelEncoder
	}

	return zapcore.EncoderConfig{
		MessageKey:     base.MessageKey,
		LevelKey:       base.LevelKey,
		TimeKey:        "ts",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		StacktraceKey:  base.StacktraceKey,
		LineEnding:     base.LineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}
