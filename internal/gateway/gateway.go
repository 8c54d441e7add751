// Package gateway 为 FIX 网关的对外门面：接收领域命令、校验并转换为 FIX 消息，
// 同时校验入站事件、维护订单与账户视图并发布到消息总线。
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"fix-gateway/internal/bus"
	"fix-gateway/internal/domain"
	"fix-gateway/internal/orderid"
	"fix-gateway/internal/outbound"
	"fix-gateway/internal/session"
)

// DataGateway 为行情与参考数据能力。
type DataGateway interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	MarketDataSubscribe(ctx context.Context, symbol domain.Symbol) error
	MarketDataSubscribeAll(ctx context.Context) error
	Instruments(ctx context.Context) ([]domain.Instrument, error)
}

// TradingGateway 为交易与账户能力。
type TradingGateway interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	SubmitOrder(ctx context.Context, order domain.Order) error
	SubmitAtomicOrder(ctx context.Context, bracket domain.AtomicOrder) error
	ModifyOrder(ctx context.Context, order domain.Order, qty, price decimal.NullDecimal) error
	CancelOrder(ctx context.Context, order domain.Order) error
	AccountInquiry(ctx context.Context) error
	Orders(ctx context.Context) ([]domain.Order, error)
	Account(ctx context.Context) (domain.AccountState, bool, error)
}

// SymbolSource 提供全部已配置标的。
type SymbolSource interface {
	Symbols() []domain.Symbol
}

// Gateway 实现 DataGateway 与 TradingGateway。
// 命令通过会话执行器串行执行，入站事件也在同一执行器上处理，视图因此无需加锁。
type Gateway struct {
	session    *session.Session
	builder    *outbound.Builder
	correlator *orderid.Correlator
	symbols    SymbolSource
	publisher  bus.Publisher
	now        func() time.Time
	logger     *zap.Logger

	views *views
}

var (
	_ DataGateway       = (*Gateway)(nil)
	_ TradingGateway    = (*Gateway)(nil)
	_ session.EventSink = (*Gateway)(nil)
)

// New 创建网关门面。会话与门面互相引用，创建会话后须调用 Bind。
func New(builder *outbound.Builder, correlator *orderid.Correlator, symbols SymbolSource,
	publisher bus.Publisher, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		builder:    builder,
		correlator: correlator,
		symbols:    symbols,
		publisher:  publisher,
		now:        time.Now,
		logger:     logger,
		views:      newViews(),
	}
}

// Bind 绑定会话组件，须在 Connect 之前调用。
func (g *Gateway) Bind(s *session.Session) {
	g.session = s
}

// Connect 开始保持连接。
func (g *Gateway) Connect(ctx context.Context) error {
	return g.session.Connect(ctx)
}

// Disconnect 停止保持连接并断开会话。
func (g *Gateway) Disconnect(ctx context.Context) error {
	return g.session.Disconnect(ctx)
}

// IsConnected 报告主会话是否已登录。
func (g *Gateway) IsConnected() bool {
	return g.session.IsConnected()
}

// SubmitOrder 提交单个订单。
func (g *Gateway) SubmitOrder(ctx context.Context, order domain.Order) error {
	if err := validateOrder("order", order); err != nil {
		return err
	}
	return g.session.Do(ctx, func() error {
		if _, exists := g.views.order(order.ID); exists {
			return domain.NewValidationError("order", "id", "already submitted: "+string(order.ID))
		}
		msg, err := g.builder.NewOrderSingle(order)
		if err != nil {
			return err
		}
		if err := g.session.SendPrimary(msg); err != nil {
			return fmt.Errorf("gateway: 提交订单 %s 失败: %w", order.ID, err)
		}
		g.views.track(order)
		g.submitted(order)
		return nil
	})
}

// SubmitAtomicOrder 以一条 NewOrderList 提交括号单。
func (g *Gateway) SubmitAtomicOrder(ctx context.Context, bracket domain.AtomicOrder) error {
	if err := validateAtomicOrder(bracket); err != nil {
		return err
	}
	return g.session.Do(ctx, func() error {
		for _, order := range bracket.Orders() {
			if _, exists := g.views.order(order.ID); exists {
				return domain.NewValidationError("atomic_order", "id", "already submitted: "+string(order.ID))
			}
		}
		msg, err := g.builder.NewOrderList(bracket)
		if err != nil {
			return err
		}
		if err := g.session.SendPrimary(msg); err != nil {
			return fmt.Errorf("gateway: 提交括号单 %s 失败: %w", bracket.ListID, err)
		}
		g.views.trackBracket(bracket)
		for _, order := range bracket.Orders() {
			g.submitted(order)
		}
		return nil
	})
}

// ModifyOrder 改单，qty 与 price 至少给出一个。
func (g *Gateway) ModifyOrder(ctx context.Context, order domain.Order, qty, price decimal.NullDecimal) error {
	if err := validateModify(order, qty, price); err != nil {
		return err
	}
	return g.session.Do(ctx, func() error {
		if err := g.checkAmendable("modify", order.ID); err != nil {
			return err
		}
		if bracket, ok := g.views.bracketOf(order.ID); ok && !bracket.ChildrenActive() {
			return domain.NewValidationError("modify", "id",
				"bracket child is inactive until entry "+string(bracket.Entry.ID)+" is filled")
		}
		msg, clOrdID, err := g.builder.OrderCancelReplaceRequest(order, g.currentClOrdID(order.ID), qty, price)
		if err != nil {
			return err
		}
		if err := g.session.SendPrimary(msg); err != nil {
			return fmt.Errorf("gateway: 改单 %s 失败: %w", order.ID, err)
		}
		g.logger.Info("改单请求已发送", zap.String("order_id", string(order.ID)), zap.String("cl_ord_id", clOrdID))
		return nil
	})
}

// CancelOrder 撤单。
func (g *Gateway) CancelOrder(ctx context.Context, order domain.Order) error {
	if order.ID == "" {
		return domain.NewValidationError("cancel", "id", "must not be empty")
	}
	return g.session.Do(ctx, func() error {
		if err := g.checkAmendable("cancel", order.ID); err != nil {
			return err
		}
		msg, clOrdID, err := g.builder.OrderCancelRequest(order, g.currentClOrdID(order.ID))
		if err != nil {
			return err
		}
		if err := g.session.SendPrimary(msg); err != nil {
			return fmt.Errorf("gateway: 撤单 %s 失败: %w", order.ID, err)
		}
		g.logger.Info("撤单请求已发送", zap.String("order_id", string(order.ID)), zap.String("cl_ord_id", clOrdID))
		return nil
	})
}

// MarketDataSubscribe 订阅单个标的行情，未登录时在登录后发送。
func (g *Gateway) MarketDataSubscribe(ctx context.Context, symbol domain.Symbol) error {
	if symbol.IsZero() || symbol.IsUnknown() {
		return domain.NewValidationError("subscribe", "symbol", "must be a known symbol")
	}
	return g.session.Do(ctx, func() error {
		return g.session.Subscribe(symbol)
	})
}

// MarketDataSubscribeAll 订阅全部已配置标的，单个失败不影响其余标的。
func (g *Gateway) MarketDataSubscribeAll(ctx context.Context) error {
	symbols := g.symbols.Symbols()
	return g.session.Do(ctx, func() error {
		var err error
		for _, symbol := range symbols {
			if subErr := g.session.Subscribe(symbol); subErr != nil {
				err = multierr.Append(err, fmt.Errorf("gateway: 订阅 %s 失败: %w", symbol, subErr))
			}
		}
		return err
	})
}

// AccountInquiry 请求账户资金与持仓。
func (g *Gateway) AccountInquiry(ctx context.Context) error {
	return g.session.Do(ctx, func() error {
		collateral, _ := g.builder.CollateralInquiry()
		if err := g.session.SendPrimary(collateral); err != nil {
			return fmt.Errorf("gateway: 账户查询失败: %w", err)
		}
		positions, _ := g.builder.RequestForPositions()
		if err := g.session.SendPrimary(positions); err != nil {
			return fmt.Errorf("gateway: 持仓查询失败: %w", err)
		}
		return nil
	})
}

// Orders 返回订单视图快照。
func (g *Gateway) Orders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := g.session.Do(ctx, func() error {
		out = g.views.orderSnapshot()
		return nil
	})
	return out, err
}

// Subscriptions 返回已登记的行情订阅，按首次请求顺序排列。
func (g *Gateway) Subscriptions(ctx context.Context) ([]domain.Symbol, error) {
	var out []domain.Symbol
	err := g.session.Do(ctx, func() error {
		out = g.session.Subscriptions()
		return nil
	})
	return out, err
}

// Instruments 返回品种视图快照。
func (g *Gateway) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	var out []domain.Instrument
	err := g.session.Do(ctx, func() error {
		out = g.views.instrumentSnapshot()
		return nil
	})
	return out, err
}

// Account 返回最近一次账户状态，尚未收到时 ok 为 false。
func (g *Gateway) Account(ctx context.Context) (acct domain.AccountState, ok bool, err error) {
	err = g.session.Do(ctx, func() error {
		if g.views.account != nil {
			acct, ok = *g.views.account, true
		}
		return nil
	})
	return acct, ok, err
}

// Order 实现 inbound.OrderLookup，仅在执行器上调用。
func (g *Gateway) Order(id domain.OrderID) (domain.Order, bool) {
	t, ok := g.views.order(id)
	if !ok {
		return domain.Order{}, false
	}
	return t.order, true
}

// Deliver 实现 session.EventSink，在执行器上按到达顺序处理入站事件。
// 事件校验失败说明上游数据已不可信，直接 panic。
func (g *Gateway) Deliver(events ...domain.Event) {
	for _, event := range events {
		g.deliver(event)
	}
}

func (g *Gateway) deliver(event domain.Event) {
	var knownQty decimal.Decimal
	if oe, ok := event.(domain.OrderEvent); ok {
		if t, tracked := g.views.order(oe.Ref().OrderID); tracked {
			knownQty = t.order.Quantity
		}
	}
	if verr := validateEvent(event, knownQty); verr != nil {
		g.logger.Error("入站事件校验失败", zap.String("kind", string(event.Kind())), zap.Error(verr))
		panic(verr)
	}
	g.checkBracketFill(event)

	if terminal := g.views.apply(event); terminal && g.correlator != nil {
		if oe, ok := event.(domain.OrderEvent); ok {
			g.correlator.Forget(oe.Ref().OrderID)
		}
	}

	if err := g.publisher.Publish(context.Background(), event); err != nil {
		g.logger.Warn("事件发布失败", zap.String("kind", string(event.Kind())), zap.Error(err))
	}
}

func (g *Gateway) submitted(order domain.Order) {
	g.deliver(domain.OrderSubmitted{
		EventHeader: domain.NewHeader(g.now().UTC()),
		OrderRef:    domain.OrderRef{OrderID: order.ID, Symbol: order.Symbol, Label: order.Label},
		ClOrdID:     string(order.ID),
	})
}

// checkAmendable 拒绝对已进入终态的订单改单或撤单。
// 终态订单的请求序列已释放，再次签发会与已用过的请求编号重复。
func (g *Gateway) checkAmendable(subject string, id domain.OrderID) error {
	if t, ok := g.views.order(id); ok && t.order.Status.IsTerminal() {
		return domain.NewValidationError(subject, "id", "order is already "+string(t.order.Status))
	}
	return nil
}

// checkBracketFill 标记入场单成交之前到达的子单成交，事件仍照常处理。
func (g *Gateway) checkBracketFill(event domain.Event) {
	var id domain.OrderID
	switch e := event.(type) {
	case domain.OrderPartiallyFilled:
		id = e.OrderID
	case domain.OrderFilled:
		id = e.OrderID
	default:
		return
	}
	if bracket, ok := g.views.bracketOf(id); ok && !bracket.ChildrenActive() {
		g.logger.Warn("括号单子单在入场单成交前成交",
			zap.String("list_id", bracket.ListID),
			zap.String("order_id", string(id)),
			zap.String("entry_id", string(bracket.Entry.ID)),
			zap.String("entry_status", string(bracket.Entry.Status)))
	}
}

// currentClOrdID 返回最近确认的请求编号，未知订单使用根编号。
func (g *Gateway) currentClOrdID(id domain.OrderID) string {
	if t, ok := g.views.order(id); ok && t.clOrdID != "" {
		return t.clOrdID
	}
	return string(id)
}
