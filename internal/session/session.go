// Package session 管理与经纪商的 FIX 会话生命周期。
//
// 引擎回调与网关命令都投递到同一个 Executor 串行执行，
// 会话句柄、订阅列表与转换器状态因此无需加锁。
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"

	"fix-gateway/internal/domain"
	"fix-gateway/internal/fix"
	"fix-gateway/internal/inbound"
	"fix-gateway/internal/metrics"
	"fix-gateway/internal/outbound"
)

// Engine 为底层 FIX 引擎，负责连接、登录、心跳与重传。
type Engine interface {
	Start() error
	Stop()
	Send(msg *quickfix.Message, sid quickfix.SessionID) error
}

// EventSink 接收会话产生的领域事件，在执行器上调用。
type EventSink interface {
	Deliver(events ...domain.Event)
}

// Config 为会话配置。
type Config struct {
	// MarketDataQualifier 匹配 SessionQualifier 的会话视为行情会话。
	MarketDataQualifier string
}

// Session 为会话组件，实现引擎回调。
type Session struct {
	cfg        Config
	engine     Engine
	exec       *Executor
	builder    *outbound.Builder
	translator *inbound.Translator
	sink       EventSink
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	state atomic.Int32

	// 以下字段仅在执行器上访问。
	maintain      bool
	primary       *handle
	marketData    *handle
	subscriptions []domain.Symbol
	subscribed    map[domain.Symbol]struct{}
}

type handle struct {
	id       quickfix.SessionID
	loggedOn bool
}

// New 创建会话组件，初始状态为 Disconnected。
func New(cfg Config, engine Engine, exec *Executor, builder *outbound.Builder, translator *inbound.Translator,
	sink EventSink, m *metrics.Metrics, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		cfg:        cfg,
		engine:     engine,
		exec:       exec,
		builder:    builder,
		translator: translator,
		sink:       sink,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		subscribed: make(map[domain.Symbol]struct{}),
	}
	s.setState(StateDisconnected)
	return s
}

// SetEngine 在装配阶段替换引擎，引擎与会话互相引用时使用。
func (s *Session) SetEngine(engine Engine) {
	s.engine = engine
}

// State 返回主会话状态。
func (s *Session) State() State {
	return State(s.state.Load())
}

// IsConnected 报告主会话是否已登录，可在任意 goroutine 调用。
func (s *Session) IsConnected() bool {
	return s.State() == StateLoggedOn
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
	s.metrics.SessionState("primary", int(state))
}

// Do 在执行器上运行 fn 并等待结果。
func (s *Session) Do(ctx context.Context, fn func() error) error {
	return s.exec.Call(ctx, fn)
}

// Connect 打开保持连接开关并启动引擎。会话已在进行中时不做任何事。
func (s *Session) Connect(ctx context.Context) error {
	var start, restart bool
	err := s.exec.Call(ctx, func() error {
		state := s.State()
		if state.active() {
			return nil
		}
		restart = state == StateLoggedOut
		start = true
		s.maintain = true
		s.primary = nil
		s.marketData = nil
		s.setState(StateConnecting)
		return nil
	})
	if err != nil || !start {
		return err
	}

	// 引擎的启停在执行器之外进行，其回调需要向执行器投递任务。
	if restart {
		s.engine.Stop()
	}
	s.logger.Info("启动 FIX 引擎")
	if err := s.engine.Start(); err != nil {
		serr := &domain.SessionError{Op: "connect", Err: err}
		s.logger.Error("FIX 引擎启动失败", zap.Error(serr))
		_ = s.exec.Call(ctx, func() error {
			s.maintain = false
			s.setState(StateDisconnected)
			return nil
		})
		return serr
	}
	return nil
}

// Disconnect 关闭保持连接开关、拆除会话句柄并停止引擎。
// 之后到达的该会话回调都会被丢弃，已入队的事件仍会投递。
func (s *Session) Disconnect(ctx context.Context) error {
	err := s.exec.Call(ctx, func() error {
		s.maintain = false
		var events []domain.Event
		for _, h := range []*handle{s.primary, s.marketData} {
			if h != nil && h.loggedOn {
				events = append(events, domain.SessionDisconnected{
					EventHeader: domain.NewHeader(s.now().UTC()),
					Session:     h.id.String(),
					MarketData:  h == s.marketData,
				})
			}
		}
		s.primary = nil
		s.marketData = nil
		s.setState(StateDisconnected)
		if len(events) > 0 {
			s.sink.Deliver(events...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.engine.Stop()
	s.logger.Info("FIX 引擎已停止")
	return nil
}

// OnCreate 为引擎回调：会话对象已创建。
func (s *Session) OnCreate(sid quickfix.SessionID) {
	s.post("create", func() { s.handleCreate(sid) })
}

// OnLogon 为引擎回调：登录成功。
func (s *Session) OnLogon(sid quickfix.SessionID) {
	s.post("logon", func() { s.handleLogon(sid) })
}

// OnLogout 为引擎回调：会话登出或断线。
func (s *Session) OnLogout(sid quickfix.SessionID) {
	s.post("logout", func() { s.handleLogout(sid) })
}

// OnMessage 为引擎回调：收到应用层消息。解析在引擎线程上完成，转换在执行器上进行。
func (s *Session) OnMessage(msg *quickfix.Message, sid quickfix.SessionID) {
	msgType := fix.MsgType(msg)
	s.metrics.InboundMessage(msgType)
	parsed, err := inbound.Parse(msg)
	if err != nil {
		s.metrics.TranslationFailed(msgType)
		s.logger.Warn("入站消息解析失败，已丢弃",
			zap.String("msg_type", msgType), zap.String("session", sid.String()), zap.Error(err))
		return
	}
	s.post("message", func() { s.handleMessage(parsed, sid) })
}

func (s *Session) post(op string, fn func()) {
	if !s.exec.Post(fn) {
		s.logger.Warn("执行器已停止，忽略引擎回调", zap.String("op", op))
	}
}

func (s *Session) isMarketData(sid quickfix.SessionID) bool {
	return s.cfg.MarketDataQualifier != "" && sid.Qualifier == s.cfg.MarketDataQualifier
}

// lookup 返回与 sid 匹配的已登记句柄。
func (s *Session) lookup(sid quickfix.SessionID) *handle {
	for _, h := range []*handle{s.primary, s.marketData} {
		if h != nil && h.id == sid {
			return h
		}
	}
	return nil
}

func (s *Session) handleCreate(sid quickfix.SessionID) {
	if !s.maintain {
		err := &domain.SessionError{Session: sid.String(), Op: "create", Err: domain.ErrMaintainConnectionOff}
		s.logger.Error("未处于保持连接状态，拒绝会话", zap.Error(err))
		return
	}
	h := &handle{id: sid}
	if s.isMarketData(sid) {
		s.marketData = h
		s.logger.Info("行情会话已创建", zap.String("session", sid.String()))
		return
	}
	s.primary = h
	s.setState(StateSessionCreated)
	s.logger.Info("交易会话已创建", zap.String("session", sid.String()))
}

func (s *Session) handleLogon(sid quickfix.SessionID) {
	h := s.lookup(sid)
	if h == nil {
		s.logger.Debug("忽略未登记会话的登录回调", zap.String("session", sid.String()))
		return
	}
	h.loggedOn = true
	marketData := h == s.marketData
	s.sink.Deliver(domain.SessionConnected{
		EventHeader: domain.NewHeader(s.now().UTC()),
		Session:     sid.String(),
		MarketData:  marketData,
	})
	if marketData {
		s.logger.Info("行情会话已登录", zap.String("session", sid.String()))
		// 主会话尚未登录时由其初始化流程统一重放。
		if s.primary != nil && s.primary.loggedOn {
			s.replaySubscriptions(h)
		}
		return
	}
	s.setState(StateLoggedOn)
	s.logger.Info("交易会话已登录", zap.String("session", sid.String()))
	s.bootstrap()
}

func (s *Session) handleLogout(sid quickfix.SessionID) {
	h := s.lookup(sid)
	if h == nil {
		s.logger.Debug("忽略未登记会话的登出回调", zap.String("session", sid.String()))
		return
	}
	marketData := h == s.marketData
	if marketData {
		s.marketData = nil
	} else {
		s.primary = nil
		s.setState(StateLoggedOut)
	}
	s.sink.Deliver(domain.SessionDisconnected{
		EventHeader: domain.NewHeader(s.now().UTC()),
		Session:     sid.String(),
		MarketData:  marketData,
	})
	s.logger.Warn("会话已登出", zap.String("session", sid.String()), zap.Bool("market_data", marketData))
}

func (s *Session) handleMessage(msg inbound.Message, sid quickfix.SessionID) {
	if s.lookup(sid) == nil {
		s.logger.Debug("忽略已拆除会话的入站消息",
			zap.String("session", sid.String()), zap.String("msg_type", msg.MsgType()))
		return
	}
	events, err := s.translator.Translate(msg)
	if err != nil {
		s.metrics.TranslationFailed(msg.MsgType())
		s.logger.Warn("入站消息转换失败，已丢弃",
			zap.String("msg_type", msg.MsgType()), zap.Error(err))
		return
	}
	if len(events) > 0 {
		s.sink.Deliver(events...)
	}
}

// bootstrap 主会话登录后依次请求账户、交易时段、持仓、证券列表，再重放行情订阅。
func (s *Session) bootstrap() {
	collateral, _ := s.builder.CollateralInquiry()
	status, _ := s.builder.TradingSessionStatusRequest()
	positions, _ := s.builder.RequestForPositions()
	securities, _ := s.builder.SecurityListRequest()
	for _, msg := range []*quickfix.Message{collateral, status, positions, securities} {
		if err := s.SendPrimary(msg); err != nil {
			s.logger.Warn("登录初始化请求发送失败", zap.String("msg_type", fix.MsgType(msg)), zap.Error(err))
		}
	}
	s.replaySubscriptions(s.marketDataTarget())
}

func (s *Session) replaySubscriptions(target *handle) {
	if target == nil {
		return
	}
	for _, symbol := range s.subscriptions {
		msg, _, err := s.builder.MarketDataRequest(symbol)
		if err != nil {
			s.logger.Warn("重放行情订阅失败", zap.String("symbol", symbol.String()), zap.Error(err))
			continue
		}
		if err := s.send(target, msg); err != nil {
			s.logger.Warn("重放行情订阅失败", zap.String("symbol", symbol.String()), zap.Error(err))
		}
	}
}

// marketDataTarget 行情会话已登录时优先使用，否则退回主会话。
func (s *Session) marketDataTarget() *handle {
	if s.marketData != nil && s.marketData.loggedOn {
		return s.marketData
	}
	if s.primary != nil && s.primary.loggedOn {
		return s.primary
	}
	return nil
}

// SendPrimary 通过主会话发送消息，必须在执行器上调用。
func (s *Session) SendPrimary(msg *quickfix.Message) error {
	if s.primary == nil || !s.primary.loggedOn {
		return domain.ErrNotConnected
	}
	return s.send(s.primary, msg)
}

// Subscribe 登记行情订阅，已登录时立即发送请求。必须在执行器上调用。
// 登记按首次请求顺序保存，重连登录后按同样顺序重放。
func (s *Session) Subscribe(symbol domain.Symbol) error {
	msg, _, err := s.builder.MarketDataRequest(symbol)
	if err != nil {
		return err
	}
	if _, ok := s.subscribed[symbol]; !ok {
		s.subscribed[symbol] = struct{}{}
		s.subscriptions = append(s.subscriptions, symbol)
	}
	target := s.marketDataTarget()
	if target == nil {
		s.logger.Info("会话未登录，行情订阅将在登录后发送", zap.String("symbol", symbol.String()))
		return nil
	}
	return s.send(target, msg)
}

// Subscriptions 返回已登记的行情订阅副本。
func (s *Session) Subscriptions() []domain.Symbol {
	out := make([]domain.Symbol, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

func (s *Session) send(h *handle, msg *quickfix.Message) error {
	if err := s.engine.Send(msg, h.id); err != nil {
		return &domain.SessionError{Session: h.id.String(), Op: "send", Err: err}
	}
	s.metrics.OutboundMessage(fix.MsgType(msg))
	return nil
}
