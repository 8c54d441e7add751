package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fix-gateway/internal/domain"
	"fix-gateway/internal/fix"
	"fix-gateway/internal/inbound"
	"fix-gateway/internal/orderid"
	"fix-gateway/internal/outbound"
	"fix-gateway/internal/session"
	"fix-gateway/internal/symbols"
)

var (
	primarySID = quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "CLIENT", TargetCompID: "BROKER"}
	eurusd     = domain.NewSymbol("EURUSD", "FXCM")
	usdjpy     = domain.NewSymbol("USDJPY", "FXCM")
)

type fakeEngine struct {
	mu   sync.Mutex
	sent []*quickfix.Message
}

func (e *fakeEngine) Start() error { return nil }
func (e *fakeEngine) Stop()        {}

func (e *fakeEngine) Send(msg *quickfix.Message, _ quickfix.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, msg)
	return nil
}

func (e *fakeEngine) ofType(msgType string) []*quickfix.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*quickfix.Message
	for _, msg := range e.sent {
		if fix.MsgType(msg) == msgType {
			out = append(out, msg)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind())
	}
	return out
}

type harness struct {
	gw        *Gateway
	session   *session.Session
	engine    *fakeEngine
	publisher *recordingPublisher
	ctx       context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mapper, err := symbols.NewMapper("FXCM", []symbols.Mapping{
		{Broker: "EUR/USD", Internal: eurusd},
		{Broker: "USD/JPY", Internal: usdjpy},
	}, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	exec := session.NewExecutor(64, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = exec.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	correlator := orderid.NewCorrelator()
	builder := outbound.NewBuilder(mapper, correlator, outbound.Account{ID: "ACC-1", Type: "1", Currency: "USD"})
	publisher := &recordingPublisher{}
	gw := New(builder, correlator, mapper, publisher, nil)
	translator := inbound.NewTranslator(mapper, nil, inbound.WithOrderLookup(gw))
	engine := &fakeEngine{}
	s := session.New(session.Config{}, engine, exec, builder, translator, gw, nil, nil)
	gw.Bind(s)

	return &harness{gw: gw, session: s, engine: engine, publisher: publisher, ctx: ctx}
}

func (h *harness) logon(t *testing.T) {
	t.Helper()
	require.NoError(t, h.gw.Connect(h.ctx))
	h.session.OnCreate(primarySID)
	h.session.OnLogon(primarySID)
	h.sync(t)
	require.True(t, h.gw.IsConnected())
}

func (h *harness) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.Do(h.ctx, func() error { return nil }))
}

func (h *harness) receive(t *testing.T, fieldsByTag map[quickfix.Tag]string) {
	t.Helper()
	msg := fix.NewMessage(fix.MsgTypeExecutionReport)
	for tag, value := range fieldsByTag {
		msg.Body.SetString(tag, value)
	}
	h.session.OnMessage(msg, primarySID)
	h.sync(t)
}

func (h *harness) order(t *testing.T, id domain.OrderID) domain.Order {
	t.Helper()
	orders, err := h.gw.Orders(h.ctx)
	require.NoError(t, err)
	for _, o := range orders {
		if o.ID == id {
			return o
		}
	}
	t.Fatalf("order %s not tracked", id)
	return domain.Order{}
}

func (h *harness) bracketOf(id domain.OrderID) (bracket domain.AtomicOrder, ok bool, err error) {
	err = h.session.Do(h.ctx, func() error {
		bracket, ok = h.gw.views.bracketOf(id)
		return nil
	})
	return bracket, ok, err
}

func limitOrder(id domain.OrderID) domain.Order {
	return domain.Order{
		ID:          id,
		Symbol:      eurusd,
		Side:        domain.OrderSideBuy,
		Type:        domain.OrderTypeLimit,
		Quantity:    decimal.NewFromInt(100),
		Price:       decimal.RequireFromString("1.1"),
		TimeInForce: domain.TimeInForceGTC,
	}
}

func TestGateway_SubmitRequiresLogon(t *testing.T) {
	h := newHarness(t)

	err := h.gw.SubmitOrder(h.ctx, limitOrder("O-1"))
	require.ErrorIs(t, err, domain.ErrNotConnected)

	orders, err := h.gw.Orders(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, h.publisher.kinds())
}

func TestGateway_SubmitValidatesBeforeSend(t *testing.T) {
	h := newHarness(t)
	h.logon(t)

	zeroQty := limitOrder("O-1")
	zeroQty.Quantity = decimal.Zero
	noPrice := limitOrder("O-2")
	noPrice.Price = decimal.Zero
	unknownSymbol := limitOrder("O-3")
	unknownSymbol.Symbol = domain.NewSymbol("GBPUSD", "FXCM")

	for _, order := range []domain.Order{zeroQty, noPrice} {
		err := h.gw.SubmitOrder(h.ctx, order)
		assert.True(t, domain.IsValidationError(err), "order %s: %v", order.ID, err)
	}
	assert.ErrorIs(t, h.gw.SubmitOrder(h.ctx, unknownSymbol), domain.ErrSymbolNotFound)

	err := h.gw.SubmitAtomicOrder(h.ctx, domain.AtomicOrder{Entry: limitOrder("O-4")})
	assert.True(t, domain.IsValidationError(err))

	assert.Empty(t, h.engine.ofType(fix.MsgTypeNewOrderSingle))
	assert.Empty(t, h.engine.ofType(fix.MsgTypeNewOrderList))
}

func TestGateway_SubmitOrderSendsAndPublishes(t *testing.T) {
	h := newHarness(t)
	h.logon(t)

	require.NoError(t, h.gw.SubmitOrder(h.ctx, limitOrder("O-1")))

	sent := h.engine.ofType(fix.MsgTypeNewOrderSingle)
	require.Len(t, sent, 1)
	assert.Equal(t, "O-1", fix.Get(&sent[0].Body.FieldMap, fix.TagClOrdID))

	assert.Equal(t, []domain.EventKind{domain.KindSessionConnected, domain.KindOrderSubmitted}, h.publisher.kinds())
	assert.Equal(t, domain.OrderStatusSubmitted, h.order(t, "O-1").Status)

	err := h.gw.SubmitOrder(h.ctx, limitOrder("O-1"))
	assert.True(t, domain.IsValidationError(err))
	assert.Len(t, h.engine.ofType(fix.MsgTypeNewOrderSingle), 1)
}

func TestGateway_OrderLifecycleCorrelatesRequestIDs(t *testing.T) {
	h := newHarness(t)
	h.logon(t)
	order := limitOrder("O-1")
	require.NoError(t, h.gw.SubmitOrder(h.ctx, order))

	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-1",
		fix.TagOrderID:      "B-1",
		fix.TagOrdStatus:    "0",
		fix.TagSymbol:       "EUR/USD",
		fix.TagSide:         "1",
		fix.TagOrdType:      "2",
		fix.TagOrderQty:     "100",
		fix.TagPrice:        "1.1",
		fix.TagTimeInForce:  "1",
		fix.TagTransactTime: "20240102-03:04:05.000",
	})
	working := h.order(t, "O-1")
	assert.Equal(t, domain.OrderStatusWorking, working.Status)
	assert.Equal(t, "B-1", working.BrokerID)

	price := decimal.NewNullDecimal(decimal.RequireFromString("1.2"))
	require.NoError(t, h.gw.ModifyOrder(h.ctx, working, decimal.NullDecimal{}, price))
	replaces := h.engine.ofType(fix.MsgTypeOrderCancelReplaceRequest)
	require.Len(t, replaces, 1)
	assert.Equal(t, "O-1", fix.Get(&replaces[0].Body.FieldMap, fix.TagOrigClOrdID))
	assert.Equal(t, "O-1_R1", fix.Get(&replaces[0].Body.FieldMap, fix.TagClOrdID))

	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-1_R1",
		fix.TagOrigClOrdID:  "O-1",
		fix.TagOrderID:      "B-2",
		fix.TagOrdStatus:    "5",
		fix.TagSymbol:       "EUR/USD",
		fix.TagOrderQty:     "100",
		fix.TagPrice:        "1.2",
		fix.TagTransactTime: "20240102-03:04:06.000",
	})
	modified := h.order(t, "O-1")
	assert.Equal(t, "B-2", modified.BrokerID)
	assert.True(t, modified.Price.Equal(decimal.RequireFromString("1.2")))

	require.NoError(t, h.gw.CancelOrder(h.ctx, modified))
	cancels := h.engine.ofType(fix.MsgTypeOrderCancelRequest)
	require.Len(t, cancels, 1)
	assert.Equal(t, "O-1_R1", fix.Get(&cancels[0].Body.FieldMap, fix.TagOrigClOrdID))
	assert.Equal(t, "O-1_R2", fix.Get(&cancels[0].Body.FieldMap, fix.TagClOrdID))

	// 撤单在途时成交先到，按到达顺序处理。
	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-1_R1",
		fix.TagOrderID:      "B-2",
		fix.TagExecID:       "E-1",
		fix.TagOrdStatus:    "2",
		fix.TagSymbol:       "EUR/USD",
		fix.TagSide:         "1",
		fix.TagOrderQty:     "100",
		fix.TagCumQty:       "100",
		fix.TagLeavesQty:    "0",
		fix.TagAvgPx:        "1.2",
		fix.TagTransactTime: "20240102-03:04:07.000",
	})
	filled := h.order(t, "O-1")
	assert.Equal(t, domain.OrderStatusFilled, filled.Status)
	assert.Equal(t, domain.OrderID("O-1"), filled.ID)

	assert.Equal(t, []domain.EventKind{
		domain.KindSessionConnected,
		domain.KindOrderSubmitted,
		domain.KindOrderWorking,
		domain.KindOrderModified,
		domain.KindOrderFilled,
	}, h.publisher.kinds())
}

func TestGateway_FillDuringModifyUsesReportedQuantity(t *testing.T) {
	h := newHarness(t)
	h.logon(t)
	require.NoError(t, h.gw.SubmitOrder(h.ctx, limitOrder("O-1")))
	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-1",
		fix.TagOrderID:      "B-1",
		fix.TagOrdStatus:    "0",
		fix.TagSymbol:       "EUR/USD",
		fix.TagOrderQty:     "100",
		fix.TagPrice:        "1.1",
		fix.TagTransactTime: "20240102-03:04:05.000",
	})

	qty := decimal.NewNullDecimal(decimal.NewFromInt(150))
	require.NoError(t, h.gw.ModifyOrder(h.ctx, h.order(t, "O-1"), qty, decimal.NullDecimal{}))

	// 改单确认之前，成交回报已带上新的委托数量。
	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-1_R1",
		fix.TagOrderID:      "B-1",
		fix.TagExecID:       "E-1",
		fix.TagOrdStatus:    "1",
		fix.TagSymbol:       "EUR/USD",
		fix.TagSide:         "1",
		fix.TagOrderQty:     "150",
		fix.TagCumQty:       "40",
		fix.TagLeavesQty:    "110",
		fix.TagAvgPx:        "1.1",
		fix.TagTransactTime: "20240102-03:04:06.000",
	})
	partial := h.order(t, "O-1")
	assert.Equal(t, domain.OrderStatusPartiallyFilled, partial.Status)
	assert.True(t, partial.Quantity.Equal(decimal.NewFromInt(150)), partial.Quantity.String())

	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-1_R1",
		fix.TagOrderID:      "B-1",
		fix.TagExecID:       "E-2",
		fix.TagOrdStatus:    "2",
		fix.TagSymbol:       "EUR/USD",
		fix.TagSide:         "1",
		fix.TagOrderQty:     "150",
		fix.TagCumQty:       "150",
		fix.TagLeavesQty:    "0",
		fix.TagAvgPx:        "1.1",
		fix.TagTransactTime: "20240102-03:04:07.000",
	})
	assert.Equal(t, domain.OrderStatusFilled, h.order(t, "O-1").Status)
}

func TestGateway_TerminalOrderRefusesAmendments(t *testing.T) {
	h := newHarness(t)
	h.logon(t)
	require.NoError(t, h.gw.SubmitOrder(h.ctx, limitOrder("O-1")))
	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-1",
		fix.TagOrderID:      "B-1",
		fix.TagOrdStatus:    "4",
		fix.TagSymbol:       "EUR/USD",
		fix.TagTransactTime: "20240102-03:04:05.000",
	})
	cancelled := h.order(t, "O-1")
	require.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	err := h.gw.CancelOrder(h.ctx, cancelled)
	assert.True(t, domain.IsValidationError(err), "%v", err)
	price := decimal.NewNullDecimal(decimal.RequireFromString("1.2"))
	err = h.gw.ModifyOrder(h.ctx, cancelled, decimal.NullDecimal{}, price)
	assert.True(t, domain.IsValidationError(err), "%v", err)

	assert.Empty(t, h.engine.ofType(fix.MsgTypeOrderCancelRequest))
	assert.Empty(t, h.engine.ofType(fix.MsgTypeOrderCancelReplaceRequest))
}

func TestGateway_SubmitAtomicOrderTracksAllLegs(t *testing.T) {
	h := newHarness(t)
	h.logon(t)

	stop := limitOrder("O-1-SL")
	stop.Side = domain.OrderSideSell
	stop.Type = domain.OrderTypeStop
	stop.Price = decimal.RequireFromString("1.05")
	take := limitOrder("O-1-TP")
	take.Side = domain.OrderSideSell
	take.Price = decimal.RequireFromString("1.15")

	require.NoError(t, h.gw.SubmitAtomicOrder(h.ctx, domain.AtomicOrder{
		ListID:     "L-1",
		Entry:      limitOrder("O-1"),
		StopLoss:   &stop,
		TakeProfit: &take,
	}))

	assert.Len(t, h.engine.ofType(fix.MsgTypeNewOrderList), 1)
	orders, err := h.gw.Orders(h.ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for _, o := range orders {
		assert.Equal(t, domain.OrderStatusSubmitted, o.Status)
	}
}

func TestGateway_BracketChildrenInactiveUntilEntryFills(t *testing.T) {
	h := newHarness(t)
	core, logs := observer.New(zap.WarnLevel)
	h.gw.logger = zap.New(core)
	h.logon(t)

	stop := limitOrder("O-2-SL")
	stop.Side = domain.OrderSideSell
	stop.Type = domain.OrderTypeStop
	stop.Price = decimal.RequireFromString("1.05")
	require.NoError(t, h.gw.SubmitAtomicOrder(h.ctx, domain.AtomicOrder{
		ListID:   "L-2",
		Entry:    limitOrder("O-2"),
		StopLoss: &stop,
	}))

	price := decimal.NewNullDecimal(decimal.RequireFromString("1.04"))
	err := h.gw.ModifyOrder(h.ctx, stop, decimal.NullDecimal{}, price)
	assert.True(t, domain.IsValidationError(err), "%v", err)
	assert.Empty(t, h.engine.ofType(fix.MsgTypeOrderCancelReplaceRequest))

	childFill := map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-2-SL",
		fix.TagOrderID:      "B-3",
		fix.TagExecID:       "E-3",
		fix.TagOrdStatus:    "2",
		fix.TagSymbol:       "EUR/USD",
		fix.TagSide:         "2",
		fix.TagOrderQty:     "100",
		fix.TagCumQty:       "100",
		fix.TagLeavesQty:    "0",
		fix.TagAvgPx:        "1.05",
		fix.TagTransactTime: "20240102-03:04:06.000",
	}
	h.receive(t, childFill)
	require.Equal(t, 1, logs.FilterMessage("括号单子单在入场单成交前成交").Len())

	h.receive(t, map[quickfix.Tag]string{
		fix.TagClOrdID:      "O-2",
		fix.TagOrderID:      "B-2",
		fix.TagExecID:       "E-2",
		fix.TagOrdStatus:    "2",
		fix.TagSymbol:       "EUR/USD",
		fix.TagSide:         "1",
		fix.TagOrderQty:     "100",
		fix.TagCumQty:       "100",
		fix.TagLeavesQty:    "0",
		fix.TagAvgPx:        "1.1",
		fix.TagTransactTime: "20240102-03:04:05.000",
	})
	bracket, ok, err := h.bracketOf("O-2-SL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, bracket.ChildrenActive())
	assert.Equal(t, 1, logs.FilterMessage("括号单子单在入场单成交前成交").Len())
}

func TestGateway_InvalidInboundFillPanics(t *testing.T) {
	h := newHarness(t)
	h.logon(t)
	require.NoError(t, h.gw.SubmitOrder(h.ctx, limitOrder("O-1")))

	fill := domain.OrderFilled{
		EventHeader: domain.NewHeader(time.Now().UTC()),
		OrderRef:    domain.OrderRef{OrderID: "O-1", BrokerID: "B-1", Symbol: eurusd},
		Execution: domain.Execution{
			ExecutionID:    "E-1",
			FilledQuantity: decimal.NewFromInt(80),
			LeavesQuantity: decimal.NewFromInt(40),
			AveragePrice:   decimal.RequireFromString("1.1"),
			ExecutedAt:     time.Now().UTC(),
		},
	}

	var recovered interface{}
	require.NoError(t, h.session.Do(h.ctx, func() error {
		defer func() { recovered = recover() }()
		h.gw.Deliver(fill)
		return nil
	}))

	verr, ok := recovered.(*domain.ValidationError)
	require.True(t, ok, "got %v", recovered)
	assert.Equal(t, "filled_quantity", verr.Field)
}

func TestGateway_NegativeAccountMoneyPanics(t *testing.T) {
	gw := New(nil, nil, nil, &recordingPublisher{}, nil)
	event := domain.AccountStateUpdated{
		EventHeader: domain.NewHeader(time.Now().UTC()),
		Account: domain.AccountState{
			AccountID:   "ACC-1",
			CashBalance: decimal.NewFromInt(-1),
		},
	}
	assert.Panics(t, func() { gw.Deliver(event) })
}

func TestGateway_AccountStateView(t *testing.T) {
	h := newHarness(t)

	_, ok, err := h.gw.Account(h.ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	state := domain.AccountState{
		AccountID:   "ACC-1",
		Currency:    "USD",
		CashBalance: decimal.NewFromInt(50000),
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, h.session.Do(h.ctx, func() error {
		h.gw.Deliver(domain.AccountStateUpdated{EventHeader: domain.NewHeader(state.Timestamp), Account: state})
		return nil
	}))

	acct, ok, err := h.gw.Account(h.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, acct.CashBalance.Equal(state.CashBalance))
	assert.Equal(t, []domain.EventKind{domain.KindAccountStateUpdated}, h.publisher.kinds())
}

func TestGateway_AccountInquirySendsCollateralAndPositions(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.gw.AccountInquiry(h.ctx), domain.ErrNotConnected)

	h.logon(t)
	require.NoError(t, h.gw.AccountInquiry(h.ctx))

	// 登录初始化已各发送一次。
	assert.Len(t, h.engine.ofType(fix.MsgTypeCollateralInquiry), 2)
	assert.Len(t, h.engine.ofType(fix.MsgTypeRequestForPositions), 2)
}

func TestGateway_SubscribeAllReplaysOnLogon(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.gw.MarketDataSubscribeAll(h.ctx))
	assert.Empty(t, h.engine.ofType(fix.MsgTypeMarketDataRequest))

	h.logon(t)
	assert.Len(t, h.engine.ofType(fix.MsgTypeMarketDataRequest), 2)

	err := h.gw.MarketDataSubscribe(h.ctx, domain.UnknownSymbol("FXCM"))
	assert.True(t, domain.IsValidationError(err))
}
