package fixengine

import (
	"bytes"
	"fmt"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

// NewZapLogFactory 将引擎日志写入 zap，原始报文仅在 debug 级别输出。
func NewZapLogFactory(logger *zap.Logger) quickfix.LogFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return zapLogFactory{logger: logger.Named("quickfix")}
}

type zapLogFactory struct {
	logger *zap.Logger
}

func (f zapLogFactory) Create() (quickfix.Log, error) {
	return zapLog{logger: f.logger}, nil
}

func (f zapLogFactory) CreateSessionLog(sid quickfix.SessionID) (quickfix.Log, error) {
	return zapLog{logger: f.logger.With(zap.String("session", sid.String()))}, nil
}

type zapLog struct {
	logger *zap.Logger
}

func (l zapLog) OnIncoming(raw []byte) {
	l.logger.Debug("收到报文", zap.String("raw", readable(raw)))
}

func (l zapLog) OnOutgoing(raw []byte) {
	l.logger.Debug("发出报文", zap.String("raw", readable(raw)))
}

func (l zapLog) OnEvent(text string) {
	l.logger.Info(text)
}

func (l zapLog) OnEventf(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

var (
	soh           = []byte{0x01}
	passwordField = []byte("\x01554=")
)

// readable 将 SOH 替换为 | 并隐藏密码字段。
func readable(raw []byte) string {
	out := raw
	if idx := bytes.Index(out, passwordField); idx >= 0 {
		start := idx + len(passwordField)
		end := bytes.IndexByte(out[start:], 0x01)
		if end < 0 {
			end = len(out) - start
		}
		masked := make([]byte, 0, len(out))
		masked = append(masked, out[:start]...)
		masked = append(masked, "***"...)
		masked = append(masked, out[start+end:]...)
		out = masked
	}
	return string(bytes.ReplaceAll(out, soh, []byte("|")))
}
