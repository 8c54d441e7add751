// Package fix 定义网关使用的 FIX 标签与消息类型，包括经纪商自定义标签。
package fix

import "github.com/quickfixgo/quickfix"

// 标准标签。
const (
	TagAccount              quickfix.Tag = 1
	TagAvgPx                quickfix.Tag = 6
	TagClOrdID              quickfix.Tag = 11
	TagCumQty               quickfix.Tag = 14
	TagCurrency             quickfix.Tag = 15
	TagExecID               quickfix.Tag = 17
	TagLastPx               quickfix.Tag = 31
	TagLastQty              quickfix.Tag = 32
	TagNoLinesOfText        quickfix.Tag = 33
	TagMsgType              quickfix.Tag = 35
	TagOrderID              quickfix.Tag = 37
	TagOrderQty             quickfix.Tag = 38
	TagOrdStatus            quickfix.Tag = 39
	TagOrdType              quickfix.Tag = 40
	TagOrigClOrdID          quickfix.Tag = 41
	TagOrigTime             quickfix.Tag = 42
	TagPossDupFlag          quickfix.Tag = 43
	TagPrice                quickfix.Tag = 44
	TagRefSeqNum            quickfix.Tag = 45
	TagSecurityID           quickfix.Tag = 48
	TagSide                 quickfix.Tag = 54
	TagSymbol               quickfix.Tag = 55
	TagText                 quickfix.Tag = 58
	TagTimeInForce          quickfix.Tag = 59
	TagTransactTime         quickfix.Tag = 60
	TagListID               quickfix.Tag = 66
	TagListSeqNo            quickfix.Tag = 67
	TagTotNoOrders          quickfix.Tag = 68
	TagNoOrders             quickfix.Tag = 73
	TagEmailType            quickfix.Tag = 94
	TagStopPx               quickfix.Tag = 99
	TagCxlRejReason         quickfix.Tag = 102
	TagOrdRejReason         quickfix.Tag = 103
	TagQuoteID              quickfix.Tag = 117
	TagExpireTime           quickfix.Tag = 126
	TagNoRelatedSym         quickfix.Tag = 146
	TagSubject              quickfix.Tag = 147
	TagExecType             quickfix.Tag = 150
	TagLeavesQty            quickfix.Tag = 151
	TagSecurityType         quickfix.Tag = 167
	TagContractMultiplier   quickfix.Tag = 231
	TagMDReqID              quickfix.Tag = 262
	TagSubscriptionReqType  quickfix.Tag = 263
	TagMarketDepth          quickfix.Tag = 264
	TagMDUpdateType         quickfix.Tag = 265
	TagNoMDEntryTypes       quickfix.Tag = 267
	TagNoMDEntries          quickfix.Tag = 268
	TagMDEntryType          quickfix.Tag = 269
	TagMDEntryPx            quickfix.Tag = 270
	TagMDEntryDate          quickfix.Tag = 272
	TagMDEntryTime          quickfix.Tag = 273
	TagMDReqRejReason       quickfix.Tag = 281
	TagQuoteStatus          quickfix.Tag = 297
	TagSecurityReqID        quickfix.Tag = 320
	TagSecurityResponseID   quickfix.Tag = 322
	TagTradSesReqID         quickfix.Tag = 335
	TagTradingSessionID     quickfix.Tag = 336
	TagTradSesStatus        quickfix.Tag = 340
	TagRefMsgType           quickfix.Tag = 372
	TagBusinessRejectReason quickfix.Tag = 380
	TagCxlRejResponseTo     quickfix.Tag = 434
	TagSecondaryClOrdID     quickfix.Tag = 526
	TagSecondaryExecID      quickfix.Tag = 527
	TagUsername             quickfix.Tag = 553
	TagPassword             quickfix.Tag = 554
	TagSecurityListReqType  quickfix.Tag = 559
	TagRoundLot             quickfix.Tag = 561
	TagMinTradeVol          quickfix.Tag = 562
	TagAccountType          quickfix.Tag = 581
	TagClOrdLinkID          quickfix.Tag = 583
	TagNoPositions          quickfix.Tag = 702
	TagPosType              quickfix.Tag = 703
	TagLongQty              quickfix.Tag = 704
	TagShortQty             quickfix.Tag = 705
	TagPosReqID             quickfix.Tag = 710
	TagClearingBusinessDate quickfix.Tag = 715
	TagPosMaintRptID        quickfix.Tag = 721
	TagPosReqType           quickfix.Tag = 724
	TagTotalNumPosReports   quickfix.Tag = 727
	TagPosReqResult         quickfix.Tag = 728
	TagPosReqStatus         quickfix.Tag = 729
	TagSettlPrice           quickfix.Tag = 730
	TagMarginRatio          quickfix.Tag = 898
	TagCashOutstanding      quickfix.Tag = 901
	TagCollInquiryID        quickfix.Tag = 909
	TagStartCash            quickfix.Tag = 921
	TagEndCash              quickfix.Tag = 922
	TagCollInquiryStatus    quickfix.Tag = 945
	TagMinPriceIncrement    quickfix.Tag = 969
	TagMaxTradeVol          quickfix.Tag = 1140
	TagContingencyType      quickfix.Tag = 1385
)

// 经纪商自定义标签。
const (
	TagBrokerSymPrecision     quickfix.Tag = 9001
	TagBrokerSymPointSize     quickfix.Tag = 9002
	TagBrokerSymInterestBuy   quickfix.Tag = 9003
	TagBrokerSymInterestSell  quickfix.Tag = 9004
	TagBrokerMarginInit       quickfix.Tag = 9012
	TagBrokerMarginMaint      quickfix.Tag = 9013
	TagBrokerUsedMargin       quickfix.Tag = 9038
	TagBrokerPositionID       quickfix.Tag = 9041
	TagBrokerMarginCall       quickfix.Tag = 9045
	TagBrokerUsedMarginLiquid quickfix.Tag = 9050
	TagBrokerCondDistStop     quickfix.Tag = 9090
	TagBrokerCondDistLimit    quickfix.Tag = 9091
)
