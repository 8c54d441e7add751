package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinPricePrecision 为价格精度下限。
const MinPricePrecision = 2

// Instrument 描述可交易品种及其交易参数。
type Instrument struct {
	Symbol           Symbol          `json:"symbol"`
	BrokerSymbol     string          `json:"broker_symbol"`
	QuoteCurrency    string          `json:"quote_currency"`
	SecurityType     string          `json:"security_type"`
	TickSize         decimal.Decimal `json:"tick_size"`
	PricePrecision   int32           `json:"price_precision"`
	RoundLot         decimal.Decimal `json:"round_lot"`
	MinTradeSize     decimal.Decimal `json:"min_trade_size"`
	MaxTradeSize     decimal.Decimal `json:"max_trade_size"`
	MinStopDistance  decimal.Decimal `json:"min_stop_distance"`
	MinLimitDistance decimal.Decimal `json:"min_limit_distance"`
	MarginInit       decimal.Decimal `json:"margin_init"`
	MarginMaint      decimal.Decimal `json:"margin_maint"`
	RolloverBuy      decimal.Decimal `json:"rollover_buy"`
	RolloverSell     decimal.Decimal `json:"rollover_sell"`
	Timestamp        time.Time       `json:"timestamp"`
}

// PrecisionFromTick 返回最小变动价位的小数位数，最少为 2。
func PrecisionFromTick(tick decimal.Decimal) int32 {
	places := DecimalPlaces(tick)
	if places < MinPricePrecision {
		return MinPricePrecision
	}
	return places
}

// DecimalPlaces 返回去除尾随零后的小数位数。
func DecimalPlaces(d decimal.Decimal) int32 {
	s := d.String()
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return int32(len(s) - idx - 1)
}

// QuoteTick 为一次买卖报价快照。
type QuoteTick struct {
	Symbol    Symbol          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Timestamp time.Time       `json:"timestamp"`
}
