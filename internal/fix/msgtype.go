package fix

import "github.com/quickfixgo/quickfix"

// 消息类型 (35)。
const (
	MsgTypeLogon                       = "A"
	MsgTypeEmail                       = "C"
	MsgTypeNewOrderSingle              = "D"
	MsgTypeNewOrderList                = "E"
	MsgTypeOrderCancelRequest          = "F"
	MsgTypeOrderCancelReplaceRequest   = "G"
	MsgTypeExecutionReport             = "8"
	MsgTypeOrderCancelReject           = "9"
	MsgTypeMarketDataRequest           = "V"
	MsgTypeMarketDataSnapshot          = "W"
	MsgTypeMarketDataRequestReject     = "Y"
	MsgTypeTradingSessionStatusRequest = "g"
	MsgTypeTradingSessionStatus        = "h"
	MsgTypeBusinessMessageReject       = "j"
	MsgTypeSecurityListRequest         = "x"
	MsgTypeSecurityList                = "y"
	MsgTypeQuoteStatusReport           = "AI"
	MsgTypeRequestForPositions         = "AN"
	MsgTypeRequestForPositionsAck      = "AO"
	MsgTypePositionReport              = "AP"
	MsgTypeCollateralReport            = "BA"
	MsgTypeCollateralInquiry           = "BB"
	MsgTypeCollateralInquiryAck        = "BG"
)

// 常用枚举值。
const (
	SubscriptionSnapshotAndUpdates = "1"
	SecurityListAllSecurities      = "4"
	PosReqTypePositions            = "0"
	ContingencyOneTriggersOther    = "2"
	MDEntryTypeBid                 = "0"
	MDEntryTypeOffer               = "1"
	MDUpdateTypeFullRefresh        = "0"
	MarketDepthTopOfBook           = "1"
	YesFlag                        = "Y"
)

// NewMessage 创建指定消息类型的空消息。
func NewMessage(msgType string) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.SetString(TagMsgType, msgType)
	return msg
}

// MsgType 读取消息头中的消息类型，缺失时返回空串。
func MsgType(msg *quickfix.Message) string {
	value, err := msg.Header.GetString(TagMsgType)
	if err != nil {
		return ""
	}
	return value
}

// Get 读取字段，缺失时返回空串。
func Get(fm *quickfix.FieldMap, tag quickfix.Tag) string {
	value, err := fm.GetString(tag)
	if err != nil {
		return ""
	}
	return value
}

// SetIfNotEmpty 仅在值非空时写入字段。
func SetIfNotEmpty(fm *quickfix.FieldMap, tag quickfix.Tag, value string) {
	if value != "" {
		fm.SetString(tag, value)
	}
}
