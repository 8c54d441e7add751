package fields

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ExecutionLayout 为执行回报时间格式 yyyyMMdd-HH:mm:ss.fff。
	ExecutionLayout = "20060102-15:04:05.000"
	// MarketDataLayout 为行情时间格式 yyyyMMddHH:mm:ss.fff，日期与时间之间没有分隔符。
	MarketDataLayout = "2006010215:04:05.000"

	// 解析时毫秒部分可省略。
	executionParseLayout  = "20060102-15:04:05"
	marketDataParseLayout = "2006010215:04:05"
)

// ErrTimestamp 表示时间戳无法解析。
var ErrTimestamp = errors.New("invalid timestamp")

// ParseExecutionTime 解析执行回报时间戳，结果为 UTC。
func ParseExecutionTime(value string) (time.Time, error) {
	return parseUTC(executionParseLayout, value)
}

// ParseMarketDataTime 解析行情时间戳，结果为 UTC。
func ParseMarketDataTime(value string) (time.Time, error) {
	return parseUTC(marketDataParseLayout, value)
}

// ParseMarketDataParts 拼接 MDEntryDate 与 MDEntryTime 后解析。
func ParseMarketDataParts(date, clock string) (time.Time, error) {
	return ParseMarketDataTime(strings.TrimSpace(date) + strings.TrimSpace(clock))
}

// FormatExecutionTime 以执行回报格式输出 UTC 时间。
func FormatExecutionTime(ts time.Time) string {
	return ts.UTC().Format(ExecutionLayout)
}

func parseUTC(layout, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrTimestamp)
	}
	ts, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrTimestamp, value, err)
	}
	return ts, nil
}
