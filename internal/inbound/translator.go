// Package inbound 将经纪商 FIX 应用消息转换为平台领域事件。
//
// 转换分两步：Parse 在引擎线程上按消息类型读取原始字段，
// Translator.Translate 在会话执行器上完成枚举、数值与时间的解析。
package inbound

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fix-gateway/internal/domain"
	"fix-gateway/internal/fields"
	"fix-gateway/internal/fix"
	"fix-gateway/internal/orderid"
)

// SymbolResolver 将经纪商代码解析为内部标的。
type SymbolResolver interface {
	Resolve(brokerCode string) (domain.Symbol, bool)
	Venue() string
}

// OrderLookup 查询本地已知订单，用于补全原始委托数量与标的。
type OrderLookup interface {
	Order(id domain.OrderID) (domain.Order, bool)
}

// Translator 无状态地把入站消息转换为领域事件。
type Translator struct {
	symbols SymbolResolver
	orders  OrderLookup
	now     func() time.Time
	logger  *zap.Logger
}

// Option 配置 Translator。
type Option func(*Translator)

// WithOrderLookup 注入订单查询。
func WithOrderLookup(orders OrderLookup) Option {
	return func(t *Translator) { t.orders = orders }
}

// WithClock 注入时钟，用于缺少传输时间的消息。
func WithClock(now func() time.Time) Option {
	return func(t *Translator) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTranslator 创建入站转换器。
func NewTranslator(symbols SymbolResolver, logger *zap.Logger, opts ...Option) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Translator{
		symbols: symbols,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate 把单条入站消息转换为零到多个领域事件。
// 返回 TranslationError 时该消息应被丢弃，不影响后续处理。
func (t *Translator) Translate(msg Message) ([]domain.Event, error) {
	switch m := msg.(type) {
	case ExecutionReport:
		return t.executionReport(m)
	case OrderCancelReject:
		return t.cancelReject(m)
	case SecurityList:
		return t.securityList(m)
	case CollateralReport:
		return t.collateralReport(m)
	case CollateralInquiryAck:
		return []domain.Event{domain.CollateralInquiryAcknowledged{
			EventHeader: domain.NewHeader(t.now().UTC()),
			InquiryID:   m.CollInquiryID,
			Account:     m.Account,
			Status:      m.CollInquiryStatus,
		}}, nil
	case RequestForPositionsAck:
		return t.positionsAck(m)
	case MarketDataSnapshot:
		return t.marketData(m)
	case BusinessMessageReject:
		return []domain.Event{domain.BusinessMessageRejected{
			EventHeader: domain.NewHeader(t.now().UTC()),
			RefSeqNum:   m.RefSeqNum,
			RefMsgType:  m.RefMsgType,
			Reason: fields.ComposeReason(
				fields.BusinessRejectReasonName(m.BusinessRejectReason), m.BusinessRejectReason, m.Text),
		}}, nil
	case TradingSessionStatus:
		return []domain.Event{domain.TradingSessionStatusChanged{
			EventHeader:      domain.NewHeader(t.now().UTC()),
			TradingSessionID: m.TradingSessionID,
			Status:           m.TradSesStatus,
			RequestID:        m.TradSesReqID,
		}}, nil
	case PositionReport:
		return t.positionReport(m)
	case Email:
		return t.email(m)
	case QuoteStatusReport:
		return t.quoteStatus(m)
	case MarketDataRequestReject:
		return []domain.Event{domain.MarketDataRejected{
			EventHeader: domain.NewHeader(t.now().UTC()),
			RequestID:   m.MDReqID,
			Reason:      fields.ComposeReason("MARKET_DATA_REJECT", m.MDReqRejReason, m.Text),
		}}, nil
	case Unsupported:
		return nil, &domain.TranslationError{MsgType: m.Type, Err: domain.ErrUnsupportedMessage}
	default:
		return nil, &domain.TranslationError{Err: domain.ErrUnsupportedMessage}
	}
}

func (t *Translator) executionReport(m ExecutionReport) ([]domain.Event, error) {
	p := parser{msgType: m.MsgType()}
	status := fields.OrderStatusFromWire(m.OrdStatus)

	switch status {
	case domain.OrderStatusWorking, domain.OrderStatusPartiallyFilled, domain.OrderStatusFilled,
		domain.OrderStatusCancelled, domain.OrderStatusReplaced, domain.OrderStatusExpired,
		domain.OrderStatusRejected:
	default:
		t.logger.Debug("执行回报状态无需转换",
			zap.String("status", fields.OrderStatusName(m.OrdStatus)),
			zap.String("cl_ord_id", m.ClOrdID))
		return nil, nil
	}

	root := orderid.Canonicalize(p.required("ClOrdID", m.ClOrdID))
	ts := p.executionTime("TransactTime", m.TransactTime)
	symbol := t.orderSymbol(&p, root, m.Symbol)
	if err := p.err(); err != nil {
		return nil, err
	}
	ref := domain.OrderRef{OrderID: root, BrokerID: m.OrderID, Symbol: symbol, Label: m.Label}
	header := domain.NewHeader(ts)

	var event domain.Event
	switch status {
	case domain.OrderStatusWorking:
		working := domain.OrderWorking{
			EventHeader: header,
			OrderRef:    ref,
			ClOrdID:     m.ClOrdID,
			Side:        fields.SideFromWire(m.Side),
			Type:        fields.OrderTypeFromWire(m.OrdType),
			Quantity:    p.decimal("OrderQty", m.OrderQty, true),
			Price:       p.decimal("Price", orderPrice(m), false),
			TimeInForce: fields.TimeInForceFromWire(m.TimeInForce),
		}
		if m.ExpireTime != "" {
			expire := p.executionTime("ExpireTime", m.ExpireTime)
			working.ExpireTime = &expire
		}
		event = working
	case domain.OrderStatusPartiallyFilled:
		exec := t.execution(&p, m, ts)
		event = domain.OrderPartiallyFilled{
			EventHeader:   header,
			OrderRef:      ref,
			Execution:     exec,
			OrderQuantity: t.reportedQuantity(&p, root, m.OrderQty),
		}
	case domain.OrderStatusFilled:
		exec := t.execution(&p, m, ts)
		event = domain.OrderFilled{
			EventHeader:   header,
			OrderRef:      ref,
			Execution:     exec,
			OrderQuantity: t.reportedQuantity(&p, root, m.OrderQty),
		}
	case domain.OrderStatusCancelled:
		event = domain.OrderCancelled{EventHeader: header, OrderRef: ref}
	case domain.OrderStatusReplaced:
		event = domain.OrderModified{
			EventHeader: header,
			OrderRef:    ref,
			ClOrdID:     m.ClOrdID,
			Quantity:    p.decimal("OrderQty", m.OrderQty, false),
			Price:       p.decimal("Price", orderPrice(m), false),
		}
	case domain.OrderStatusExpired:
		event = domain.OrderExpired{EventHeader: header, OrderRef: ref}
	case domain.OrderStatusRejected:
		event = domain.OrderRejected{
			EventHeader: header,
			OrderRef:    ref,
			Reason:      fields.ComposeReason(fields.OrderRejectReasonName(m.OrdRejReason), m.OrdRejReason, m.Text),
		}
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return []domain.Event{event}, nil
}

func (t *Translator) execution(p *parser, m ExecutionReport, ts time.Time) domain.Execution {
	ticket := m.Ticket
	if ticket == "" {
		ticket = m.ExecID
	}
	return domain.Execution{
		ExecutionID:    p.required("ExecID", m.ExecID),
		Ticket:         ticket,
		Side:           fields.SideFromWire(m.Side),
		FilledQuantity: p.decimal("CumQty", m.CumQty, true),
		LeavesQuantity: p.decimal("LeavesQty", m.LeavesQty, false),
		AveragePrice:   p.decimal("AvgPx", m.AvgPx, true),
		ExecutedAt:     ts,
	}
}

// orderPrice 止损单没有 Price 时使用 StopPx。
func orderPrice(m ExecutionReport) string {
	if m.Price == "" {
		return m.StopPx
	}
	return m.Price
}

// reportedQuantity 以回报中的 OrderQty 为准，缺失时使用本地订单数量。
// 改单确认之前到达的成交会带上新的委托数量，本地数量此时已过期。
func (t *Translator) reportedQuantity(p *parser, root domain.OrderID, raw string) decimal.Decimal {
	qty := p.decimal("OrderQty", raw, false)
	if qty.IsPositive() {
		return qty
	}
	if known, ok := t.lookup(root); ok {
		return known.Quantity
	}
	return qty
}

// orderSymbol 回报缺少 Symbol 时沿用本地订单的标的，本地也没有时视为无法解析。
func (t *Translator) orderSymbol(p *parser, root domain.OrderID, code string) domain.Symbol {
	if code == "" {
		if known, ok := t.lookup(root); ok && !known.Symbol.IsZero() {
			return known.Symbol
		}
		p.fail("Symbol", "", domain.ErrSymbolNotFound)
		return domain.Symbol{}
	}
	return t.resolve(p, code)
}

func (t *Translator) lookup(id domain.OrderID) (domain.Order, bool) {
	if t.orders == nil {
		return domain.Order{}, false
	}
	return t.orders.Order(id)
}

func (t *Translator) resolve(p *parser, code string) domain.Symbol {
	symbol, ok := t.symbols.Resolve(code)
	if !ok {
		p.fail("Symbol", code, domain.ErrSymbolNotFound)
	}
	return symbol
}

func (t *Translator) cancelReject(m OrderCancelReject) ([]domain.Event, error) {
	p := parser{msgType: m.MsgType()}
	raw := m.OrigClOrdID
	if raw == "" {
		raw = m.ClOrdID
	}
	root := orderid.Canonicalize(p.required("ClOrdID", raw))
	ts := t.now().UTC()
	if m.TransactTime != "" {
		ts = p.executionTime("TransactTime", m.TransactTime)
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	ref := domain.OrderRef{OrderID: root, BrokerID: m.OrderID}
	if known, ok := t.lookup(root); ok {
		ref.Symbol = known.Symbol
		ref.Label = known.Label
	}
	return []domain.Event{domain.OrderCancelRejected{
		EventHeader: domain.NewHeader(ts),
		OrderRef:    ref,
		ResponseTo:  fields.CancelRejectResponseTo(m.CxlRejResponseTo),
		Reason:      fields.ComposeReason(fields.CancelRejectReasonName(m.CxlRejReason), m.CxlRejReason, m.Text),
	}}, nil
}

func (t *Translator) securityList(m SecurityList) ([]domain.Event, error) {
	now := t.now().UTC()
	events := make([]domain.Event, 0, len(m.Entries))
	for i, entry := range m.Entries {
		p := parser{msgType: m.MsgType()}
		symbol, ok := t.symbols.Resolve(entry.Symbol)
		if !ok {
			t.logger.Warn("证券列表中的代码未映射，使用占位标的",
				zap.String("broker_symbol", entry.Symbol), zap.Int("index", i))
			symbol = domain.UnknownSymbol(t.symbols.Venue())
		}
		tick := p.decimal("MinPriceIncrement", tickSize(entry), true)
		if err := p.err(); err == nil && !tick.IsPositive() {
			p.fail("MinPriceIncrement", tick.String(), errors.New("tick size must be positive"))
		}
		instrument := domain.Instrument{
			Symbol:           symbol,
			BrokerSymbol:     entry.Symbol,
			QuoteCurrency:    entry.Currency,
			SecurityType:     entry.SecurityType,
			TickSize:         tick,
			PricePrecision:   domain.PrecisionFromTick(tick),
			RoundLot:         p.decimal("RoundLot", entry.RoundLot, false),
			MinTradeSize:     p.decimal("MinTradeVol", entry.MinTradeVol, false),
			MaxTradeSize:     p.decimal("MaxTradeVol", entry.MaxTradeVol, false),
			MinStopDistance:  p.decimal("CondDistStop", entry.CondDistStop, false),
			MinLimitDistance: p.decimal("CondDistLimit", entry.CondDistLimit, false),
			MarginInit:       p.decimal("MarginInit", entry.MarginInit, false),
			MarginMaint:      p.decimal("MarginMaint", entry.MarginMaint, false),
			RolloverBuy:      p.decimal("InterestBuy", entry.InterestBuy, false),
			RolloverSell:     p.decimal("InterestSell", entry.InterestSell, false),
			Timestamp:        now,
		}
		if err := p.err(); err != nil {
			return nil, err
		}
		events = append(events, domain.InstrumentUpdated{EventHeader: domain.NewHeader(now), Instrument: instrument})
	}
	return events, nil
}

// tickSize 优先使用 MinPriceIncrement，缺失时退回经纪商的 PointSize。
func tickSize(entry SecurityListEntry) string {
	if entry.MinPriceIncr != "" {
		return entry.MinPriceIncr
	}
	return entry.PointSize
}

func (t *Translator) collateralReport(m CollateralReport) ([]domain.Event, error) {
	p := parser{msgType: m.MsgType()}
	ts := t.now().UTC()
	if m.TransactTime != "" {
		ts = p.executionTime("TransactTime", m.TransactTime)
	}
	state := domain.AccountState{
		AccountID:             p.required("Account", m.Account),
		Currency:              m.Currency,
		CashBalance:           p.decimal("CashOutstanding", m.CashOutstanding, false),
		CashStartDay:          p.decimal("StartCash", m.StartCash, false),
		CashDaily:             p.decimal("EndCash", m.EndCash, false),
		MarginUsedMaintenance: p.decimal("UsedMargin", m.UsedMargin, false),
		MarginUsedLiquidation: p.decimal("UsedMarginLiquidation", m.UsedMarginLiquidation, false),
		MarginRatio:           p.decimal("MarginRatio", m.MarginRatio, false),
		MarginCallStatus:      fields.MarginCallStatusFromWire(m.MarginCall),
		Timestamp:             ts,
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return []domain.Event{domain.AccountStateUpdated{EventHeader: domain.NewHeader(ts), Account: state}}, nil
}

func (t *Translator) positionsAck(m RequestForPositionsAck) ([]domain.Event, error) {
	total := 0
	if m.TotalNumPosReports != "" {
		n, err := strconv.Atoi(m.TotalNumPosReports)
		if err != nil {
			return nil, &domain.TranslationError{
				MsgType: m.MsgType(), Field: "TotalNumPosReports", Value: m.TotalNumPosReports, Err: err,
			}
		}
		total = n
	}
	return []domain.Event{domain.PositionsRequestAcknowledged{
		EventHeader:  domain.NewHeader(t.now().UTC()),
		RequestID:    m.PosReqID,
		Account:      m.Account,
		Result:       m.PosReqResult,
		Status:       m.PosReqStatus,
		TotalReports: total,
	}}, nil
}

func (t *Translator) positionReport(m PositionReport) ([]domain.Event, error) {
	p := parser{msgType: m.MsgType()}
	symbol := t.resolve(&p, p.required("Symbol", m.Symbol))
	ts := t.now().UTC()
	if m.TransactTime != "" {
		ts = p.executionTime("TransactTime", m.TransactTime)
	}
	report := domain.PositionReport{
		ReportID:        m.PosMaintRptID,
		RequestID:       m.PosReqID,
		Account:         m.Account,
		Symbol:          symbol,
		LongQuantity:    p.decimal("LongQty", m.LongQty, false),
		ShortQuantity:   p.decimal("ShortQty", m.ShortQty, false),
		SettlementPrice: p.decimal("SettlPrice", m.SettlPrice, false),
		Timestamp:       ts,
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return []domain.Event{domain.PositionReported{EventHeader: domain.NewHeader(ts), Position: report}}, nil
}

// marketData 每个快照合成一笔买卖报价，时间取最新的条目时间。
func (t *Translator) marketData(m MarketDataSnapshot) ([]domain.Event, error) {
	p := parser{msgType: m.MsgType()}
	symbol := t.resolve(&p, p.required("Symbol", m.Symbol))
	if err := p.err(); err != nil {
		return nil, err
	}
	tick := domain.QuoteTick{Symbol: symbol}
	var haveBid, haveAsk bool
	for _, entry := range m.Entries {
		var price decimal.Decimal
		switch entry.EntryType {
		case fix.MDEntryTypeBid:
			price = p.decimal("MDEntryPx", entry.Price, true)
			tick.Bid, haveBid = price, true
		case fix.MDEntryTypeOffer:
			price = p.decimal("MDEntryPx", entry.Price, true)
			tick.Ask, haveAsk = price, true
		default:
			continue
		}
		if entry.Date != "" || entry.Time != "" {
			ts, err := fields.ParseMarketDataParts(entry.Date, entry.Time)
			if err != nil {
				p.fail("MDEntryTime", entry.Date+entry.Time, err)
				continue
			}
			if ts.After(tick.Timestamp) {
				tick.Timestamp = ts
			}
		}
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	if !haveBid || !haveAsk {
		t.logger.Debug("行情快照缺少买价或卖价，忽略", zap.String("symbol", symbol.String()))
		return nil, nil
	}
	if tick.Timestamp.IsZero() {
		tick.Timestamp = t.now().UTC()
	}
	return []domain.Event{domain.QuoteTickReceived{EventHeader: domain.NewHeader(tick.Timestamp), Tick: tick}}, nil
}

func (t *Translator) email(m Email) ([]domain.Event, error) {
	ts := t.now().UTC()
	if m.OrigTime != "" {
		parsed, err := fields.ParseExecutionTime(m.OrigTime)
		if err != nil {
			return nil, &domain.TranslationError{MsgType: m.MsgType(), Field: "OrigTime", Value: m.OrigTime, Err: err}
		}
		ts = parsed
	}
	return []domain.Event{domain.BrokerNotice{
		EventHeader: domain.NewHeader(ts),
		EmailType:   m.EmailType,
		Subject:     m.Subject,
		Text:        strings.Join(m.Lines, "\n"),
	}}, nil
}

func (t *Translator) quoteStatus(m QuoteStatusReport) ([]domain.Event, error) {
	symbol := domain.Symbol{}
	if m.Symbol != "" {
		resolved, ok := t.symbols.Resolve(m.Symbol)
		if !ok {
			resolved = domain.UnknownSymbol(t.symbols.Venue())
		}
		symbol = resolved
	}
	return []domain.Event{domain.QuoteStatusReported{
		EventHeader: domain.NewHeader(t.now().UTC()),
		QuoteID:     m.QuoteID,
		Symbol:      symbol,
		Status:      m.QuoteStatus,
		Text:        m.Text,
	}}, nil
}
