package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountState 描述经纪商回报的账户资金状态，每次抵押品报告整体替换。
type AccountState struct {
	AccountID             string           `json:"account_id"`
	Currency              string           `json:"currency"`
	CashBalance           decimal.Decimal  `json:"cash_balance"`
	CashStartDay          decimal.Decimal  `json:"cash_start_day"`
	CashDaily             decimal.Decimal  `json:"cash_daily"`
	MarginUsedMaintenance decimal.Decimal  `json:"margin_used_maintenance"`
	MarginUsedLiquidation decimal.Decimal  `json:"margin_used_liquidation"`
	MarginRatio           decimal.Decimal  `json:"margin_ratio"`
	MarginCallStatus      MarginCallStatus `json:"margin_call_status"`
	Timestamp             time.Time        `json:"timestamp"`
}

// PositionReport 描述单个品种的持仓报告。
type PositionReport struct {
	ReportID        string          `json:"report_id"`
	RequestID       string          `json:"request_id,omitempty"`
	Account         string          `json:"account"`
	Symbol          Symbol          `json:"symbol"`
	LongQuantity    decimal.Decimal `json:"long_quantity"`
	ShortQuantity   decimal.Decimal `json:"short_quantity"`
	SettlementPrice decimal.Decimal `json:"settlement_price"`
	Timestamp       time.Time       `json:"timestamp"`
}
