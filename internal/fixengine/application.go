// Package fixengine 将 quickfix 引擎接入会话组件。
package fixengine

import (
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"

	"fix-gateway/internal/fix"
	"fix-gateway/internal/metrics"
	"fix-gateway/internal/outbound"
)

// Handler 接收会话生命周期与应用层消息回调。
type Handler interface {
	OnCreate(sid quickfix.SessionID)
	OnLogon(sid quickfix.SessionID)
	OnLogout(sid quickfix.SessionID)
	OnMessage(msg *quickfix.Message, sid quickfix.SessionID)
}

// Credentials 为 Logon 消息附带的认证信息。
type Credentials struct {
	Username string
	Password string
	Account  string
}

// Application 实现 quickfix.Application，全部回调转发给 Handler。
type Application struct {
	handler   Handler
	creds     Credentials
	finalizer *outbound.Finalizer
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

var _ quickfix.Application = (*Application)(nil)

func NewApplication(handler Handler, creds Credentials, finalizer *outbound.Finalizer, m *metrics.Metrics, logger *zap.Logger) *Application {
	if logger == nil {
		logger = zap.NewNop()
	}
	if finalizer == nil {
		finalizer = outbound.NewFinalizer("", false)
	}
	return &Application{
		handler:   handler,
		creds:     creds,
		finalizer: finalizer,
		metrics:   m,
		logger:    logger,
	}
}

func (a *Application) OnCreate(sid quickfix.SessionID) {
	a.handler.OnCreate(sid)
}

func (a *Application) OnLogon(sid quickfix.SessionID) {
	a.handler.OnLogon(sid)
}

func (a *Application) OnLogout(sid quickfix.SessionID) {
	a.handler.OnLogout(sid)
}

// ToAdmin 在 Logon 消息上附加用户名、密码与账户。
func (a *Application) ToAdmin(msg *quickfix.Message, sid quickfix.SessionID) {
	if fix.MsgType(msg) != fix.MsgTypeLogon {
		return
	}
	body := &msg.Body.FieldMap
	fix.SetIfNotEmpty(body, fix.TagUsername, a.creds.Username)
	fix.SetIfNotEmpty(body, fix.TagPassword, a.creds.Password)
	fix.SetIfNotEmpty(body, fix.TagAccount, a.creds.Account)
	a.logger.Debug("发送登录请求", zap.String("session", sid.String()), zap.String("username", a.creds.Username))
}

// ToApp 在发送前做最后处理，PossDup 消息返回 ErrDoNotSend 放弃发送。
func (a *Application) ToApp(msg *quickfix.Message, sid quickfix.SessionID) error {
	if !a.finalizer.Finalize(msg) {
		a.metrics.DuplicateSuppressed()
		a.logger.Info("跳过可能重复的出站消息",
			zap.String("session", sid.String()), zap.String("msg_type", fix.MsgType(msg)))
		return quickfix.ErrDoNotSend
	}
	return nil
}

func (a *Application) FromAdmin(msg *quickfix.Message, sid quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *Application) FromApp(msg *quickfix.Message, sid quickfix.SessionID) quickfix.MessageRejectError {
	a.handler.OnMessage(msg, sid)
	return nil
}
