package domain

// OrderSide 表示买卖方向。
type OrderSide string

const (
	OrderSideUnknown OrderSide = "UNKNOWN"
	OrderSideBuy     OrderSide = "BUY"
	OrderSideSell    OrderSide = "SELL"
)

// OrderType 表示委托类型。
type OrderType string

const (
	OrderTypeUnknown   OrderType = "UNKNOWN"
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

// RequiresPrice 判断该类型是否必须携带价格。
func (t OrderType) RequiresPrice() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStop, OrderTypeStopLimit:
		return true
	default:
		return false
	}
}

// TimeInForce 表示委托有效期策略。
type TimeInForce string

const (
	TimeInForceUnknown TimeInForce = "UNKNOWN"
	TimeInForceDay     TimeInForce = "DAY"
	TimeInForceGTC     TimeInForce = "GTC"
	TimeInForceGTD     TimeInForce = "GTD"
	TimeInForceIOC     TimeInForce = "IOC"
	TimeInForceFOK     TimeInForce = "FOK"
)

// OrderStatus 表示订单生命周期状态。
type OrderStatus string

const (
	OrderStatusUnknown         OrderStatus = "UNKNOWN"
	OrderStatusInitialized     OrderStatus = "INITIALIZED"
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusPendingNew      OrderStatus = "PENDING_NEW"
	OrderStatusWorking         OrderStatus = "WORKING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPendingCancel   OrderStatus = "PENDING_CANCEL"
	OrderStatusPendingReplace  OrderStatus = "PENDING_REPLACE"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusReplaced        OrderStatus = "REPLACED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// IsTerminal 判断状态是否为终态。
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// MarginCallStatus 表示保证金追缴状态。
type MarginCallStatus string

const (
	MarginCallUnknown MarginCallStatus = "UNKNOWN"
	MarginCallNone    MarginCallStatus = "NONE"
	MarginCallWarning MarginCallStatus = "WARNING"
	MarginCallActive  MarginCallStatus = "MARGIN_CALL"
)
