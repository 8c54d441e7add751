package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderID 为本地签发的根订单编号，生命周期内不变。
type OrderID string

// Order 描述平台视角的订单。
type Order struct {
	ID          OrderID         `json:"id"`
	BrokerID    string          `json:"broker_id,omitempty"`
	Symbol      Symbol          `json:"symbol"`
	Label       string          `json:"label,omitempty"`
	Side        OrderSide       `json:"side"`
	Type        OrderType       `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TimeInForce TimeInForce     `json:"time_in_force"`
	ExpireTime  *time.Time      `json:"expire_time,omitempty"`
	Status      OrderStatus     `json:"status"`

	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	AveragePrice   decimal.Decimal `json:"average_price"`
}

// Execution 描述一次成交回报。
type Execution struct {
	ExecutionID    string          `json:"execution_id"`
	Ticket         string          `json:"ticket"`
	Side           OrderSide       `json:"side"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	LeavesQuantity decimal.Decimal `json:"leaves_quantity"`
	AveragePrice   decimal.Decimal `json:"average_price"`
	ExecutedAt     time.Time       `json:"executed_at"`
}

// Apply 根据入站事件推进订单状态，根编号不会被修改。
// 返回 false 表示事件与该订单无关。
func (o *Order) Apply(event Event) bool {
	switch e := event.(type) {
	case OrderSubmitted:
		if e.OrderID != o.ID {
			return false
		}
		o.Status = OrderStatusSubmitted
	case OrderWorking:
		if e.OrderID != o.ID {
			return false
		}
		o.BrokerID = e.BrokerID
		o.Status = OrderStatusWorking
	case OrderPartiallyFilled:
		if e.OrderID != o.ID {
			return false
		}
		o.replaceBrokerID(e.BrokerID)
		o.replaceQuantity(e.OrderQuantity)
		o.FilledQuantity = e.FilledQuantity
		o.AveragePrice = e.AveragePrice
		o.Status = OrderStatusPartiallyFilled
	case OrderFilled:
		if e.OrderID != o.ID {
			return false
		}
		o.replaceBrokerID(e.BrokerID)
		o.replaceQuantity(e.OrderQuantity)
		o.FilledQuantity = e.FilledQuantity
		o.AveragePrice = e.AveragePrice
		o.Status = OrderStatusFilled
	case OrderModified:
		if e.OrderID != o.ID {
			return false
		}
		o.replaceBrokerID(e.BrokerID)
		if e.Price.IsPositive() {
			o.Price = e.Price
		}
		if e.Quantity.IsPositive() {
			o.Quantity = e.Quantity
		}
		o.Status = OrderStatusWorking
	case OrderCancelled:
		if e.OrderID != o.ID {
			return false
		}
		o.Status = OrderStatusCancelled
	case OrderExpired:
		if e.OrderID != o.ID {
			return false
		}
		o.Status = OrderStatusExpired
	case OrderRejected:
		if e.OrderID != o.ID {
			return false
		}
		o.Status = OrderStatusRejected
	default:
		return false
	}
	return true
}

func (o *Order) replaceBrokerID(id string) {
	if id != "" {
		o.BrokerID = id
	}
}

func (o *Order) replaceQuantity(qty decimal.Decimal) {
	if qty.IsPositive() {
		o.Quantity = qty
	}
}

// AtomicOrder 为入场单加可选止损、止盈子单组成的括号单，共享 ListID。
type AtomicOrder struct {
	ListID     string `json:"list_id"`
	Entry      Order  `json:"entry"`
	StopLoss   *Order `json:"stop_loss,omitempty"`
	TakeProfit *Order `json:"take_profit,omitempty"`
}

// Orders 按入场、止损、止盈顺序返回全部订单。
func (a AtomicOrder) Orders() []Order {
	orders := []Order{a.Entry}
	if a.StopLoss != nil {
		orders = append(orders, *a.StopLoss)
	}
	if a.TakeProfit != nil {
		orders = append(orders, *a.TakeProfit)
	}
	return orders
}

// ChildrenActive 子单仅在入场单完全成交后生效。
func (a AtomicOrder) ChildrenActive() bool {
	return a.Entry.Status == OrderStatusFilled
}
