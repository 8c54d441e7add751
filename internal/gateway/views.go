package gateway

import (
	"sort"

	"fix-gateway/internal/domain"
)

// trackedOrder 为本地订单视图，clOrdID 为最近一次被经纪商确认的请求编号。
type trackedOrder struct {
	order   domain.Order
	clOrdID string
}

// bracketLeg 记录括号单子单所属的列表与入场单。
type bracketLeg struct {
	listID string
	entry  domain.OrderID
}

// views 仅在会话执行器上读写。
type views struct {
	orders      map[domain.OrderID]*trackedOrder
	brackets    map[domain.OrderID]bracketLeg
	instruments map[domain.Symbol]domain.Instrument
	account     *domain.AccountState
}

func newViews() *views {
	return &views{
		orders:      make(map[domain.OrderID]*trackedOrder),
		brackets:    make(map[domain.OrderID]bracketLeg),
		instruments: make(map[domain.Symbol]domain.Instrument),
	}
}

func (v *views) track(order domain.Order) {
	order.Status = domain.OrderStatusInitialized
	v.orders[order.ID] = &trackedOrder{order: order, clOrdID: string(order.ID)}
}

func (v *views) trackBracket(bracket domain.AtomicOrder) {
	orders := bracket.Orders()
	for _, order := range orders {
		v.track(order)
	}
	for _, child := range orders[1:] {
		v.brackets[child.ID] = bracketLeg{listID: bracket.ListID, entry: bracket.Entry.ID}
	}
}

// bracketOf 返回子单所在的括号单，入场单为当前视图中的状态。
// 入场单本身与普通订单返回 false。
func (v *views) bracketOf(id domain.OrderID) (domain.AtomicOrder, bool) {
	leg, ok := v.brackets[id]
	if !ok {
		return domain.AtomicOrder{}, false
	}
	entry, ok := v.orders[leg.entry]
	if !ok {
		return domain.AtomicOrder{}, false
	}
	return domain.AtomicOrder{ListID: leg.listID, Entry: entry.order}, true
}

// apply 以事件推进视图，返回事件涉及的订单是否进入终态。
func (v *views) apply(event domain.Event) (terminal bool) {
	switch e := event.(type) {
	case domain.InstrumentUpdated:
		if !e.Instrument.Symbol.IsUnknown() {
			v.instruments[e.Instrument.Symbol] = e.Instrument
		}
	case domain.AccountStateUpdated:
		acct := e.Account
		v.account = &acct
	case domain.OrderWorking:
		t, ok := v.orders[e.OrderID]
		if !ok {
			// 进程重启前提交的订单在首次回报时纳入视图。
			t = &trackedOrder{order: domain.Order{
				ID:          e.OrderID,
				Symbol:      e.Symbol,
				Label:       e.Label,
				Side:        e.Side,
				Type:        e.Type,
				Quantity:    e.Quantity,
				Price:       e.Price,
				TimeInForce: e.TimeInForce,
				ExpireTime:  e.ExpireTime,
			}}
			v.orders[e.OrderID] = t
		}
		if e.ClOrdID != "" {
			t.clOrdID = e.ClOrdID
		}
		t.order.Apply(e)
	case domain.OrderModified:
		if t, ok := v.orders[e.OrderID]; ok {
			if e.ClOrdID != "" {
				t.clOrdID = e.ClOrdID
			}
			t.order.Apply(e)
		}
	case domain.OrderEvent:
		if t, ok := v.orders[e.Ref().OrderID]; ok {
			t.order.Apply(e)
			return t.order.Status.IsTerminal()
		}
	}
	return false
}

func (v *views) order(id domain.OrderID) (*trackedOrder, bool) {
	t, ok := v.orders[id]
	return t, ok
}

func (v *views) orderSnapshot() []domain.Order {
	out := make([]domain.Order, 0, len(v.orders))
	for _, t := range v.orders {
		out = append(out, t.order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *views) instrumentSnapshot() []domain.Instrument {
	out := make([]domain.Instrument, 0, len(v.instruments))
	for _, instr := range v.instruments {
		out = append(out, instr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol.String() < out[j].Symbol.String() })
	return out
}
