package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind 标识领域事件类型。
type EventKind string

const (
	KindSessionConnected              EventKind = "session_connected"
	KindSessionDisconnected           EventKind = "session_disconnected"
	KindOrderSubmitted                EventKind = "order_submitted"
	KindOrderWorking                  EventKind = "order_working"
	KindOrderPartiallyFilled          EventKind = "order_partially_filled"
	KindOrderFilled                   EventKind = "order_filled"
	KindOrderCancelled                EventKind = "order_cancelled"
	KindOrderModified                 EventKind = "order_modified"
	KindOrderExpired                  EventKind = "order_expired"
	KindOrderRejected                 EventKind = "order_rejected"
	KindOrderCancelRejected           EventKind = "order_cancel_rejected"
	KindInstrumentUpdated             EventKind = "instrument_updated"
	KindQuoteTick                     EventKind = "quote_tick"
	KindAccountStateUpdated           EventKind = "account_state_updated"
	KindPositionReported              EventKind = "position_reported"
	KindTradingSessionStatusChanged   EventKind = "trading_session_status_changed"
	KindCollateralInquiryAcknowledged EventKind = "collateral_inquiry_acknowledged"
	KindPositionsRequestAcknowledged  EventKind = "positions_request_acknowledged"
	KindBusinessMessageRejected       EventKind = "business_message_rejected"
	KindBrokerNotice                  EventKind = "broker_notice"
	KindQuoteStatusReported           EventKind = "quote_status_reported"
	KindMarketDataRejected            EventKind = "market_data_rejected"
)

// Event 为发布到消息总线的领域事件。
type Event interface {
	Kind() EventKind
	EventID() uuid.UUID
	OccurredAt() time.Time
}

// EventHeader 为所有事件共享的头部。
type EventHeader struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHeader 以给定时间创建事件头。
func NewHeader(ts time.Time) EventHeader {
	return EventHeader{ID: uuid.New(), Timestamp: ts}
}

func (h EventHeader) EventID() uuid.UUID    { return h.ID }
func (h EventHeader) OccurredAt() time.Time { return h.Timestamp }

// OrderRef 为订单事件共用的标识字段。
type OrderRef struct {
	OrderID  OrderID `json:"order_id"`
	BrokerID string  `json:"broker_id"`
	Symbol   Symbol  `json:"symbol"`
	Label    string  `json:"label,omitempty"`
}

// Ref 返回订单标识，订单类事件通过嵌入获得该方法。
func (r OrderRef) Ref() OrderRef { return r }

// OrderEvent 为携带订单标识的事件。
type OrderEvent interface {
	Event
	Ref() OrderRef
}

type SessionConnected struct {
	EventHeader
	Session    string `json:"session"`
	MarketData bool   `json:"market_data"`
}

func (SessionConnected) Kind() EventKind { return KindSessionConnected }

type SessionDisconnected struct {
	EventHeader
	Session    string `json:"session"`
	MarketData bool   `json:"market_data"`
}

func (SessionDisconnected) Kind() EventKind { return KindSessionDisconnected }

// OrderSubmitted 在订单消息交给引擎发送后产生。
type OrderSubmitted struct {
	EventHeader
	OrderRef
	ClOrdID string `json:"cl_ord_id"`
}

func (OrderSubmitted) Kind() EventKind { return KindOrderSubmitted }

// OrderWorking 表示订单已被经纪商接受并挂单。
type OrderWorking struct {
	EventHeader
	OrderRef
	ClOrdID     string          `json:"cl_ord_id"`
	Side        OrderSide       `json:"side"`
	Type        OrderType       `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TimeInForce TimeInForce     `json:"time_in_force"`
	ExpireTime  *time.Time      `json:"expire_time,omitempty"`
}

func (OrderWorking) Kind() EventKind { return KindOrderWorking }

type OrderPartiallyFilled struct {
	EventHeader
	OrderRef
	Execution
	// OrderQuantity 为回报中的委托数量，缺失时为本地已知数量，均未知时为零。
	OrderQuantity decimal.Decimal `json:"order_quantity"`
}

func (OrderPartiallyFilled) Kind() EventKind { return KindOrderPartiallyFilled }

type OrderFilled struct {
	EventHeader
	OrderRef
	Execution
	// OrderQuantity 为回报中的委托数量，缺失时为本地已知数量，均未知时为零。
	OrderQuantity decimal.Decimal `json:"order_quantity"`
}

func (OrderFilled) Kind() EventKind { return KindOrderFilled }

type OrderCancelled struct {
	EventHeader
	OrderRef
}

func (OrderCancelled) Kind() EventKind { return KindOrderCancelled }

// OrderModified 表示改单被接受，BrokerID 为改单后的新经纪商编号。
type OrderModified struct {
	EventHeader
	OrderRef
	ClOrdID  string          `json:"cl_ord_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (OrderModified) Kind() EventKind { return KindOrderModified }

type OrderExpired struct {
	EventHeader
	OrderRef
}

func (OrderExpired) Kind() EventKind { return KindOrderExpired }

type OrderRejected struct {
	EventHeader
	OrderRef
	Reason string `json:"reason"`
}

func (OrderRejected) Kind() EventKind { return KindOrderRejected }

// OrderCancelRejected 对应撤单或改单被拒。
type OrderCancelRejected struct {
	EventHeader
	OrderRef
	ResponseTo string `json:"response_to"`
	Reason     string `json:"reason"`
}

func (OrderCancelRejected) Kind() EventKind { return KindOrderCancelRejected }

type InstrumentUpdated struct {
	EventHeader
	Instrument Instrument `json:"instrument"`
}

func (InstrumentUpdated) Kind() EventKind { return KindInstrumentUpdated }

type QuoteTickReceived struct {
	EventHeader
	Tick QuoteTick `json:"tick"`
}

func (QuoteTickReceived) Kind() EventKind { return KindQuoteTick }

type AccountStateUpdated struct {
	EventHeader
	Account AccountState `json:"account"`
}

func (AccountStateUpdated) Kind() EventKind { return KindAccountStateUpdated }

type PositionReported struct {
	EventHeader
	Position PositionReport `json:"position"`
}

func (PositionReported) Kind() EventKind { return KindPositionReported }

type TradingSessionStatusChanged struct {
	EventHeader
	TradingSessionID string `json:"trading_session_id"`
	Status           string `json:"status"`
	RequestID        string `json:"request_id,omitempty"`
}

func (TradingSessionStatusChanged) Kind() EventKind { return KindTradingSessionStatusChanged }

type CollateralInquiryAcknowledged struct {
	EventHeader
	InquiryID string `json:"inquiry_id"`
	Account   string `json:"account"`
	Status    string `json:"status"`
}

func (CollateralInquiryAcknowledged) Kind() EventKind { return KindCollateralInquiryAcknowledged }

type PositionsRequestAcknowledged struct {
	EventHeader
	RequestID    string `json:"request_id"`
	Account      string `json:"account"`
	Result       string `json:"result"`
	Status       string `json:"status"`
	TotalReports int    `json:"total_reports"`
}

func (PositionsRequestAcknowledged) Kind() EventKind { return KindPositionsRequestAcknowledged }

type BusinessMessageRejected struct {
	EventHeader
	RefSeqNum  string `json:"ref_seq_num"`
	RefMsgType string `json:"ref_msg_type"`
	Reason     string `json:"reason"`
}

func (BusinessMessageRejected) Kind() EventKind { return KindBusinessMessageRejected }

// BrokerNotice 对应经纪商推送的 Email 消息。
type BrokerNotice struct {
	EventHeader
	EmailType string `json:"email_type"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
}

func (BrokerNotice) Kind() EventKind { return KindBrokerNotice }

type QuoteStatusReported struct {
	EventHeader
	QuoteID string `json:"quote_id"`
	Symbol  Symbol `json:"symbol"`
	Status  string `json:"status"`
	Text    string `json:"text,omitempty"`
}

func (QuoteStatusReported) Kind() EventKind { return KindQuoteStatusReported }

type MarketDataRejected struct {
	EventHeader
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

func (MarketDataRejected) Kind() EventKind { return KindMarketDataRejected }
