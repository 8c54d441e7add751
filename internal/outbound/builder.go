// Package outbound 将平台命令转换为经纪商 FIX 消息。
package outbound

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"

	"fix-gateway/internal/domain"
	"fix-gateway/internal/fields"
	"fix-gateway/internal/fix"
	"fix-gateway/internal/orderid"
)

// SymbolLookup 将内部标的转换为经纪商代码。
type SymbolLookup interface {
	ToBroker(symbol domain.Symbol) (string, bool)
}

// Account 为出站消息携带的账户信息。
type Account struct {
	ID       string
	Type     string
	Currency string
}

var (
	orderListTemplate = quickfix.GroupTemplate{
		quickfix.GroupElement(fix.TagClOrdID),
		quickfix.GroupElement(fix.TagListSeqNo),
		quickfix.GroupElement(fix.TagClOrdLinkID),
		quickfix.GroupElement(fix.TagSecondaryClOrdID),
		quickfix.GroupElement(fix.TagAccount),
		quickfix.GroupElement(fix.TagSymbol),
		quickfix.GroupElement(fix.TagSide),
		quickfix.GroupElement(fix.TagTransactTime),
		quickfix.GroupElement(fix.TagOrderQty),
		quickfix.GroupElement(fix.TagOrdType),
		quickfix.GroupElement(fix.TagPrice),
		quickfix.GroupElement(fix.TagStopPx),
		quickfix.GroupElement(fix.TagTimeInForce),
		quickfix.GroupElement(fix.TagExpireTime),
	}
	mdEntryTypesTemplate = quickfix.GroupTemplate{
		quickfix.GroupElement(fix.TagMDEntryType),
	}
	relatedSymTemplate = quickfix.GroupTemplate{
		quickfix.GroupElement(fix.TagSymbol),
	}
)

// OrderListGroup 返回 NoOrders 重复组。
func OrderListGroup() *quickfix.RepeatingGroup {
	return quickfix.NewRepeatingGroup(fix.TagNoOrders, orderListTemplate)
}

// MDEntryTypesGroup 返回 NoMDEntryTypes 重复组。
func MDEntryTypesGroup() *quickfix.RepeatingGroup {
	return quickfix.NewRepeatingGroup(fix.TagNoMDEntryTypes, mdEntryTypesTemplate)
}

// RelatedSymGroup 返回行情请求使用的 NoRelatedSym 重复组。
func RelatedSymGroup() *quickfix.RepeatingGroup {
	return quickfix.NewRepeatingGroup(fix.TagNoRelatedSym, relatedSymTemplate)
}

// Builder 为每个命令构造一条出站消息。
// 撤单与改单会推进 Correlator 序列，只能在会话执行器上调用。
type Builder struct {
	symbols    SymbolLookup
	correlator *orderid.Correlator
	account    Account
	now        func() time.Time
	newID      func() string
}

// Option 配置 Builder。
type Option func(*Builder)

// WithClock 注入时钟。
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator 注入请求编号生成器。
func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) {
		if newID != nil {
			b.newID = newID
		}
	}
}

func NewBuilder(symbols SymbolLookup, correlator *orderid.Correlator, account Account, opts ...Option) *Builder {
	if correlator == nil {
		correlator = orderid.NewCorrelator()
	}
	b := &Builder{
		symbols:    symbols,
		correlator: correlator,
		account:    account,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewOrderSingle 构造新订单 (D)，ClOrdID 即根订单编号。
func (b *Builder) NewOrderSingle(order domain.Order) (*quickfix.Message, error) {
	brokerSymbol, err := b.brokerSymbol(order.Symbol)
	if err != nil {
		return nil, err
	}
	msg := fix.NewMessage(fix.MsgTypeNewOrderSingle)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagClOrdID, string(order.ID))
	if err := b.writeOrder(body, order, brokerSymbol); err != nil {
		return nil, err
	}
	return msg, nil
}

// NewOrderList 构造括号单 (E)，子单以一触发其他 (OTO) 方式挂在入场单之后。
func (b *Builder) NewOrderList(bracket domain.AtomicOrder) (*quickfix.Message, error) {
	orders := bracket.Orders()
	resolved := make([]string, len(orders))
	for i, order := range orders {
		brokerSymbol, err := b.brokerSymbol(order.Symbol)
		if err != nil {
			return nil, err
		}
		resolved[i] = brokerSymbol
	}

	msg := fix.NewMessage(fix.MsgTypeNewOrderList)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagListID, bracket.ListID)
	body.SetString(fix.TagContingencyType, fix.ContingencyOneTriggersOther)
	body.SetInt(fix.TagTotNoOrders, len(orders))

	group := OrderListGroup()
	for i, order := range orders {
		row := group.Add()
		fm := &row.FieldMap
		fm.SetString(fix.TagClOrdID, string(order.ID))
		fm.SetInt(fix.TagListSeqNo, i+1)
		fm.SetString(fix.TagClOrdLinkID, bracket.ListID)
		if err := b.writeOrder(fm, order, resolved[i]); err != nil {
			return nil, err
		}
	}
	body.SetGroup(group)
	return msg, nil
}

// OrderCancelRequest 构造撤单 (F)，返回新签发的 ClOrdID。
func (b *Builder) OrderCancelRequest(order domain.Order, origClOrdID string) (*quickfix.Message, string, error) {
	brokerSymbol, err := b.brokerSymbol(order.Symbol)
	if err != nil {
		return nil, "", err
	}
	side, ok := fields.SideToWire(order.Side)
	if !ok {
		return nil, "", domain.NewValidationError("cancel", "side", "is unknown")
	}

	clOrdID := b.correlator.NextRequestID(order.ID)
	msg := fix.NewMessage(fix.MsgTypeOrderCancelRequest)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagOrigClOrdID, originalID(order, origClOrdID))
	body.SetString(fix.TagClOrdID, clOrdID)
	fix.SetIfNotEmpty(body, fix.TagOrderID, order.BrokerID)
	body.SetString(fix.TagSymbol, brokerSymbol)
	body.SetString(fix.TagSide, side)
	body.SetString(fix.TagOrderQty, order.Quantity.String())
	body.SetString(fix.TagTransactTime, b.timestamp())
	return msg, clOrdID, nil
}

// OrderCancelReplaceRequest 构造改单 (G)，未给出的数量或价格沿用订单当前值。
func (b *Builder) OrderCancelReplaceRequest(order domain.Order, origClOrdID string, qty, price decimal.NullDecimal) (*quickfix.Message, string, error) {
	brokerSymbol, err := b.brokerSymbol(order.Symbol)
	if err != nil {
		return nil, "", err
	}
	if qty.Valid {
		order.Quantity = qty.Decimal
	}
	if price.Valid {
		order.Price = price.Decimal
	}
	// 先完成全部校验，失败时不推进序列。
	if _, err := b.orderFields(order); err != nil {
		return nil, "", err
	}

	clOrdID := b.correlator.NextRequestID(order.ID)
	msg := fix.NewMessage(fix.MsgTypeOrderCancelReplaceRequest)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagOrigClOrdID, originalID(order, origClOrdID))
	body.SetString(fix.TagClOrdID, clOrdID)
	fix.SetIfNotEmpty(body, fix.TagOrderID, order.BrokerID)
	if err := b.writeOrder(body, order, brokerSymbol); err != nil {
		return nil, "", err
	}
	return msg, clOrdID, nil
}

// CollateralInquiry 构造抵押品查询 (BB)。
func (b *Builder) CollateralInquiry() (*quickfix.Message, string) {
	id := b.newID()
	msg := fix.NewMessage(fix.MsgTypeCollateralInquiry)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagCollInquiryID, id)
	body.SetString(fix.TagSubscriptionReqType, fix.SubscriptionSnapshotAndUpdates)
	fix.SetIfNotEmpty(body, fix.TagAccount, b.account.ID)
	fix.SetIfNotEmpty(body, fix.TagCurrency, b.account.Currency)
	body.SetString(fix.TagTransactTime, b.timestamp())
	return msg, id
}

// TradingSessionStatusRequest 构造交易时段状态请求 (g)。
func (b *Builder) TradingSessionStatusRequest() (*quickfix.Message, string) {
	id := b.newID()
	msg := fix.NewMessage(fix.MsgTypeTradingSessionStatusRequest)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagTradSesReqID, id)
	body.SetString(fix.TagSubscriptionReqType, fix.SubscriptionSnapshotAndUpdates)
	return msg, id
}

// RequestForPositions 构造持仓请求 (AN)。
func (b *Builder) RequestForPositions() (*quickfix.Message, string) {
	id := b.newID()
	now := b.now().UTC()
	msg := fix.NewMessage(fix.MsgTypeRequestForPositions)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagPosReqID, id)
	body.SetString(fix.TagPosReqType, fix.PosReqTypePositions)
	body.SetString(fix.TagSubscriptionReqType, fix.SubscriptionSnapshotAndUpdates)
	fix.SetIfNotEmpty(body, fix.TagAccount, b.account.ID)
	fix.SetIfNotEmpty(body, fix.TagAccountType, b.account.Type)
	body.SetString(fix.TagClearingBusinessDate, now.Format("20060102"))
	body.SetString(fix.TagTransactTime, fields.FormatExecutionTime(now))
	return msg, id
}

// SecurityListRequest 请求全部可交易品种 (x)。
func (b *Builder) SecurityListRequest() (*quickfix.Message, string) {
	id := b.newID()
	msg := fix.NewMessage(fix.MsgTypeSecurityListRequest)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagSecurityReqID, id)
	body.SetString(fix.TagSecurityListReqType, fix.SecurityListAllSecurities)
	return msg, id
}

// MarketDataRequest 订阅单个标的的买卖一档快照与增量 (V)。
func (b *Builder) MarketDataRequest(symbol domain.Symbol) (*quickfix.Message, string, error) {
	brokerSymbol, err := b.brokerSymbol(symbol)
	if err != nil {
		return nil, "", err
	}
	id := b.newID()
	msg := fix.NewMessage(fix.MsgTypeMarketDataRequest)
	body := &msg.Body.FieldMap
	body.SetString(fix.TagMDReqID, id)
	body.SetString(fix.TagSubscriptionReqType, fix.SubscriptionSnapshotAndUpdates)
	body.SetString(fix.TagMarketDepth, fix.MarketDepthTopOfBook)
	body.SetString(fix.TagMDUpdateType, fix.MDUpdateTypeFullRefresh)

	entryTypes := MDEntryTypesGroup()
	entryTypes.Add().SetString(fix.TagMDEntryType, fix.MDEntryTypeBid)
	entryTypes.Add().SetString(fix.TagMDEntryType, fix.MDEntryTypeOffer)
	body.SetGroup(entryTypes)

	related := RelatedSymGroup()
	related.Add().SetString(fix.TagSymbol, brokerSymbol)
	body.SetGroup(related)
	return msg, id, nil
}

func (b *Builder) brokerSymbol(symbol domain.Symbol) (string, error) {
	code, ok := b.symbols.ToBroker(symbol)
	if !ok {
		return "", fmt.Errorf("outbound: %s: %w", symbol, domain.ErrSymbolNotFound)
	}
	return code, nil
}

func (b *Builder) timestamp() string {
	return fields.FormatExecutionTime(b.now())
}

// wireOrder 为订单转换后的线上枚举。
type wireOrder struct {
	side    string
	ordType string
	tif     string
}

func (b *Builder) orderFields(order domain.Order) (wireOrder, error) {
	var w wireOrder
	var ok bool
	if w.side, ok = fields.SideToWire(order.Side); !ok {
		return w, domain.NewValidationError("order", "side", "is unknown")
	}
	if w.ordType, ok = fields.OrderTypeToWire(order.Type); !ok {
		return w, domain.NewValidationError("order", "type", "is unknown")
	}
	if w.tif, ok = fields.TimeInForceToWire(order.TimeInForce); !ok {
		return w, domain.NewValidationError("order", "time_in_force", "is unknown")
	}
	if order.TimeInForce == domain.TimeInForceGTD && order.ExpireTime == nil {
		return w, domain.NewValidationError("order", "expire_time", "is required for GTD")
	}
	return w, nil
}

func (b *Builder) writeOrder(fm *quickfix.FieldMap, order domain.Order, brokerSymbol string) error {
	w, err := b.orderFields(order)
	if err != nil {
		return err
	}
	fix.SetIfNotEmpty(fm, fix.TagSecondaryClOrdID, order.Label)
	fm.SetString(fix.TagSymbol, brokerSymbol)
	fm.SetString(fix.TagSide, w.side)
	fm.SetString(fix.TagTransactTime, b.timestamp())
	fm.SetString(fix.TagOrderQty, order.Quantity.String())
	fm.SetString(fix.TagOrdType, w.ordType)
	switch order.Type {
	case domain.OrderTypeLimit:
		fm.SetString(fix.TagPrice, order.Price.String())
	case domain.OrderTypeStop:
		fm.SetString(fix.TagStopPx, order.Price.String())
	case domain.OrderTypeStopLimit:
		fm.SetString(fix.TagPrice, order.Price.String())
		fm.SetString(fix.TagStopPx, order.Price.String())
	}
	fm.SetString(fix.TagTimeInForce, w.tif)
	if order.TimeInForce == domain.TimeInForceGTD {
		fm.SetString(fix.TagExpireTime, fields.FormatExecutionTime(*order.ExpireTime))
	}
	return nil
}

// originalID 缺省时以根编号作为被替换的 ClOrdID。
func originalID(order domain.Order, origClOrdID string) string {
	if origClOrdID != "" {
		return origClOrdID
	}
	return string(order.ID)
}
