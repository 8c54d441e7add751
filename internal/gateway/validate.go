package gateway

import (
	"github.com/shopspring/decimal"

	"fix-gateway/internal/domain"
)

// validateOrder 校验待发送的订单，失败时不会产生任何发送。
func validateOrder(subject string, order domain.Order) error {
	if order.ID == "" {
		return domain.NewValidationError(subject, "id", "must not be empty")
	}
	if order.Symbol.IsZero() || order.Symbol.IsUnknown() {
		return domain.NewValidationError(subject, "symbol", "must be a known symbol")
	}
	if !order.Quantity.IsPositive() {
		return domain.NewValidationError(subject, "quantity", "must be positive")
	}
	if order.Price.IsNegative() {
		return domain.NewValidationError(subject, "price", "must not be negative")
	}
	if order.Type.RequiresPrice() && !order.Price.IsPositive() {
		return domain.NewValidationError(subject, "price", "must be positive for "+string(order.Type))
	}
	return nil
}

func validateAtomicOrder(bracket domain.AtomicOrder) error {
	if bracket.ListID == "" {
		return domain.NewValidationError("atomic_order", "list_id", "must not be empty")
	}
	seen := make(map[domain.OrderID]struct{}, 3)
	for _, order := range bracket.Orders() {
		if err := validateOrder("atomic_order", order); err != nil {
			return err
		}
		if _, dup := seen[order.ID]; dup {
			return domain.NewValidationError("atomic_order", "id", "duplicated within list "+bracket.ListID)
		}
		seen[order.ID] = struct{}{}
	}
	return nil
}

func validateModify(order domain.Order, qty, price decimal.NullDecimal) error {
	if order.ID == "" {
		return domain.NewValidationError("modify", "id", "must not be empty")
	}
	if !qty.Valid && !price.Valid {
		return domain.NewValidationError("modify", "quantity", "quantity or price is required")
	}
	if qty.Valid && !qty.Decimal.IsPositive() {
		return domain.NewValidationError("modify", "quantity", "must be positive")
	}
	if price.Valid && !price.Decimal.IsPositive() {
		return domain.NewValidationError("modify", "price", "must be positive")
	}
	return nil
}

// validateEvent 校验入站事件。knownQty 为本地已知的委托数量，未知时为零。
func validateEvent(event domain.Event, knownQty decimal.Decimal) *domain.ValidationError {
	subject := string(event.Kind())
	if event.OccurredAt().IsZero() {
		return domain.NewValidationError(subject, "timestamp", "must not be zero")
	}
	if oe, ok := event.(domain.OrderEvent); ok && oe.Ref().OrderID == "" {
		return domain.NewValidationError(subject, "order_id", "must not be empty")
	}

	switch e := event.(type) {
	case domain.OrderWorking:
		if e.BrokerID == "" {
			return domain.NewValidationError(subject, "broker_id", "must not be empty")
		}
		if !e.Quantity.IsPositive() {
			return domain.NewValidationError(subject, "quantity", "must be positive")
		}
		if e.Price.IsNegative() {
			return domain.NewValidationError(subject, "price", "must not be negative")
		}
	case domain.OrderPartiallyFilled:
		return validateExecution(subject, e.Execution, reportedOrFallback(e.OrderQuantity, knownQty))
	case domain.OrderFilled:
		return validateExecution(subject, e.Execution, reportedOrFallback(e.OrderQuantity, knownQty))
	case domain.OrderModified:
		if e.Quantity.IsNegative() {
			return domain.NewValidationError(subject, "quantity", "must not be negative")
		}
		if e.Price.IsNegative() {
			return domain.NewValidationError(subject, "price", "must not be negative")
		}
	case domain.InstrumentUpdated:
		if !e.Instrument.TickSize.IsPositive() {
			return domain.NewValidationError(subject, "tick_size", "must be positive")
		}
	case domain.QuoteTickReceived:
		if !e.Tick.Bid.IsPositive() {
			return domain.NewValidationError(subject, "bid", "must be positive")
		}
		if !e.Tick.Ask.IsPositive() {
			return domain.NewValidationError(subject, "ask", "must be positive")
		}
	case domain.AccountStateUpdated:
		return validateAccount(subject, e.Account)
	case domain.PositionReported:
		if e.Position.LongQuantity.IsNegative() {
			return domain.NewValidationError(subject, "long_quantity", "must not be negative")
		}
		if e.Position.ShortQuantity.IsNegative() {
			return domain.NewValidationError(subject, "short_quantity", "must not be negative")
		}
	}
	return nil
}

// reportedOrFallback 回报带有委托数量时以回报为准。
func reportedOrFallback(reported, known decimal.Decimal) decimal.Decimal {
	if reported.IsPositive() {
		return reported
	}
	return known
}

func validateExecution(subject string, exec domain.Execution, orderQty decimal.Decimal) *domain.ValidationError {
	if exec.ExecutionID == "" {
		return domain.NewValidationError(subject, "execution_id", "must not be empty")
	}
	if exec.ExecutedAt.IsZero() {
		return domain.NewValidationError(subject, "executed_at", "must not be zero")
	}
	if !exec.FilledQuantity.IsPositive() {
		return domain.NewValidationError(subject, "filled_quantity", "must be positive")
	}
	if exec.LeavesQuantity.IsNegative() {
		return domain.NewValidationError(subject, "leaves_quantity", "must not be negative")
	}
	if !exec.AveragePrice.IsPositive() {
		return domain.NewValidationError(subject, "average_price", "must be positive")
	}
	if orderQty.IsPositive() && exec.FilledQuantity.Add(exec.LeavesQuantity).GreaterThan(orderQty) {
		return domain.NewValidationError(subject, "filled_quantity", "filled + leaves exceeds order quantity "+orderQty.String())
	}
	return nil
}

func validateAccount(subject string, acct domain.AccountState) *domain.ValidationError {
	if acct.AccountID == "" {
		return domain.NewValidationError(subject, "account_id", "must not be empty")
	}
	money := []struct {
		field string
		value decimal.Decimal
	}{
		{"cash_balance", acct.CashBalance},
		{"cash_start_day", acct.CashStartDay},
		{"cash_daily", acct.CashDaily},
		{"margin_used_maintenance", acct.MarginUsedMaintenance},
		{"margin_used_liquidation", acct.MarginUsedLiquidation},
		{"margin_ratio", acct.MarginRatio},
	}
	for _, m := range money {
		if m.value.IsNegative() {
			return domain.NewValidationError(subject, m.field, "must not be negative")
		}
	}
	return nil
}
