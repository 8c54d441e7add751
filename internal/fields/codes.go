// Package fields 提供 FIX 枚举代码与领域枚举之间的纯函数映射。
// 所有函数对未知输入返回显式的 Unknown 值，从不 panic。
package fields

import (
	"fmt"
	"strings"

	"fix-gateway/internal/domain"
)

// Side (54)

func SideFromWire(code string) domain.OrderSide {
	switch code {
	case "1":
		return domain.OrderSideBuy
	case "2":
		return domain.OrderSideSell
	default:
		return domain.OrderSideUnknown
	}
}

func SideToWire(side domain.OrderSide) (string, bool) {
	switch side {
	case domain.OrderSideBuy:
		return "1", true
	case domain.OrderSideSell:
		return "2", true
	default:
		return "", false
	}
}

// OrdType (40)

func OrderTypeFromWire(code string) domain.OrderType {
	switch code {
	case "1":
		return domain.OrderTypeMarket
	case "2":
		return domain.OrderTypeLimit
	case "3":
		return domain.OrderTypeStop
	case "4":
		return domain.OrderTypeStopLimit
	default:
		return domain.OrderTypeUnknown
	}
}

func OrderTypeToWire(t domain.OrderType) (string, bool) {
	switch t {
	case domain.OrderTypeMarket:
		return "1", true
	case domain.OrderTypeLimit:
		return "2", true
	case domain.OrderTypeStop:
		return "3", true
	case domain.OrderTypeStopLimit:
		return "4", true
	default:
		return "", false
	}
}

// TimeInForce (59)

func TimeInForceFromWire(code string) domain.TimeInForce {
	switch code {
	case "0":
		return domain.TimeInForceDay
	case "1":
		return domain.TimeInForceGTC
	case "3":
		return domain.TimeInForceIOC
	case "4":
		return domain.TimeInForceFOK
	case "6":
		return domain.TimeInForceGTD
	default:
		return domain.TimeInForceUnknown
	}
}

func TimeInForceToWire(tif domain.TimeInForce) (string, bool) {
	switch tif {
	case domain.TimeInForceDay:
		return "0", true
	case domain.TimeInForceGTC:
		return "1", true
	case domain.TimeInForceIOC:
		return "3", true
	case domain.TimeInForceFOK:
		return "4", true
	case domain.TimeInForceGTD:
		return "6", true
	default:
		return "", false
	}
}

// OrdStatus (39)

var orderStatusTable = map[string]struct {
	status domain.OrderStatus
	name   string
}{
	"0": {domain.OrderStatusWorking, "NEW"},
	"1": {domain.OrderStatusPartiallyFilled, "PARTIALLY_FILLED"},
	"2": {domain.OrderStatusFilled, "FILLED"},
	"4": {domain.OrderStatusCancelled, "CANCELED"},
	"5": {domain.OrderStatusReplaced, "REPLACED"},
	"6": {domain.OrderStatusPendingCancel, "PENDING_CANCEL"},
	"8": {domain.OrderStatusRejected, "REJECTED"},
	"A": {domain.OrderStatusPendingNew, "PENDING_NEW"},
	"C": {domain.OrderStatusExpired, "EXPIRED"},
	"E": {domain.OrderStatusPendingReplace, "PENDING_REPLACE"},
}

// OrderStatusFromWire 将 OrdStatus 代码映射为领域状态。
func OrderStatusFromWire(code string) domain.OrderStatus {
	if entry, ok := orderStatusTable[code]; ok {
		return entry.status
	}
	return domain.OrderStatusUnknown
}

// OrderStatusName 返回 OrdStatus 代码的可读名称，用于日志展示。
func OrderStatusName(code string) string {
	if entry, ok := orderStatusTable[code]; ok {
		return entry.name
	}
	return "UNKNOWN"
}

// OrdRejReason (103)
var orderRejectReasons = map[string]string{
	"0":  "BROKER_OPTION",
	"1":  "UNKNOWN_SYMBOL",
	"2":  "EXCHANGE_CLOSED",
	"3":  "ORDER_EXCEEDS_LIMIT",
	"4":  "TOO_LATE_TO_ENTER",
	"5":  "UNKNOWN_ORDER",
	"6":  "DUPLICATE_ORDER",
	"7":  "DUPLICATE_OF_VERBALLY_COMMUNICATED_ORDER",
	"8":  "STALE_ORDER",
	"11": "UNSUPPORTED_ORDER_CHARACTERISTIC",
	"13": "INCORRECT_QUANTITY",
	"15": "UNKNOWN_ACCOUNT",
	"16": "PRICE_EXCEEDS_CURRENT_PRICE_BAND",
	"18": "INVALID_PRICE_INCREMENT",
	"99": "OTHER",
}

// CxlRejReason (102)
var cancelRejectReasons = map[string]string{
	"0":  "TOO_LATE_TO_CANCEL",
	"1":  "UNKNOWN_ORDER",
	"2":  "BROKER_OPTION",
	"3":  "ALREADY_PENDING",
	"6":  "DUPLICATE_CLORDID",
	"99": "OTHER",
}

// BusinessRejectReason (380)
var businessRejectReasons = map[string]string{
	"0": "OTHER",
	"1": "UNKNOWN_ID",
	"2": "UNKNOWN_SECURITY",
	"3": "UNSUPPORTED_MESSAGE_TYPE",
	"4": "APPLICATION_NOT_AVAILABLE",
	"5": "CONDITIONALLY_REQUIRED_FIELD_MISSING",
	"6": "NOT_AUTHORIZED",
	"7": "DELIVERTO_FIRM_NOT_AVAILABLE",
}

func OrderRejectReasonName(code string) string {
	return lookup(orderRejectReasons, code)
}

func CancelRejectReasonName(code string) string {
	return lookup(cancelRejectReasons, code)
}

func BusinessRejectReasonName(code string) string {
	return lookup(businessRejectReasons, code)
}

// ComposeReason 将经纪商代码、名称与文本合成为一条原因描述。
func ComposeReason(name, code, text string) string {
	text = strings.TrimSpace(text)
	if code == "" {
		if text == "" {
			return name
		}
		return fmt.Sprintf("%s %s", name, text)
	}
	if text == "" {
		return fmt.Sprintf("%s (code=%s)", name, code)
	}
	return fmt.Sprintf("%s (code=%s) %s", name, code, text)
}

// CxlRejResponseTo (434)
func CancelRejectResponseTo(code string) string {
	switch code {
	case "1":
		return "CANCEL"
	case "2":
		return "REPLACE"
	default:
		return "UNKNOWN"
	}
}

// MarginCallStatusFromWire 解析经纪商自定义的保证金追缴标志。
func MarginCallStatusFromWire(code string) domain.MarginCallStatus {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "N":
		return domain.MarginCallNone
	case "W":
		return domain.MarginCallWarning
	case "Y", "Q", "A":
		return domain.MarginCallActive
	default:
		return domain.MarginCallUnknown
	}
}

func lookup(table map[string]string, code string) string {
	if name, ok := table[code]; ok {
		return name
	}
	return "UNKNOWN"
}
