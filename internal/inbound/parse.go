package inbound

import (
	"fmt"

	"github.com/quickfixgo/quickfix"

	"fix-gateway/internal/fix"
)

// 重复组模板，首个元素为组分隔字段。
var (
	securityListTemplate = quickfix.GroupTemplate{
		quickfix.GroupElement(fix.TagSymbol),
		quickfix.GroupElement(fix.TagSecurityID),
		quickfix.GroupElement(fix.TagCurrency),
		quickfix.GroupElement(fix.TagSecurityType),
		quickfix.GroupElement(fix.TagContractMultiplier),
		quickfix.GroupElement(fix.TagRoundLot),
		quickfix.GroupElement(fix.TagMinTradeVol),
		quickfix.GroupElement(fix.TagMinPriceIncrement),
		quickfix.GroupElement(fix.TagMaxTradeVol),
		quickfix.GroupElement(fix.TagBrokerSymPrecision),
		quickfix.GroupElement(fix.TagBrokerSymPointSize),
		quickfix.GroupElement(fix.TagBrokerSymInterestBuy),
		quickfix.GroupElement(fix.TagBrokerSymInterestSell),
		quickfix.GroupElement(fix.TagBrokerMarginInit),
		quickfix.GroupElement(fix.TagBrokerMarginMaint),
		quickfix.GroupElement(fix.TagBrokerCondDistStop),
		quickfix.GroupElement(fix.TagBrokerCondDistLimit),
	}
	mdEntriesTemplate = quickfix.GroupTemplate{
		quickfix.GroupElement(fix.TagMDEntryType),
		quickfix.GroupElement(fix.TagMDEntryPx),
		quickfix.GroupElement(fix.TagMDEntryDate),
		quickfix.GroupElement(fix.TagMDEntryTime),
	}
	linesOfTextTemplate = quickfix.GroupTemplate{
		quickfix.GroupElement(fix.TagText),
	}
)

// SecurityListGroup 返回 NoRelatedSym 重复组，测试与经纪商模拟器用它构造消息。
func SecurityListGroup() *quickfix.RepeatingGroup {
	return quickfix.NewRepeatingGroup(fix.TagNoRelatedSym, securityListTemplate)
}

// MDEntriesGroup 返回 NoMDEntries 重复组。
func MDEntriesGroup() *quickfix.RepeatingGroup {
	return quickfix.NewRepeatingGroup(fix.TagNoMDEntries, mdEntriesTemplate)
}

// LinesOfTextGroup 返回 NoLinesOfText 重复组。
func LinesOfTextGroup() *quickfix.RepeatingGroup {
	return quickfix.NewRepeatingGroup(fix.TagNoLinesOfText, linesOfTextTemplate)
}

// Parse 按 MsgType 将应用层消息拆解为对应变体，只读取原始字符串，不做语义转换。
// 未识别的类型返回 Unsupported，不视为错误。
func Parse(msg *quickfix.Message) (Message, error) {
	if msg == nil {
		return nil, fmt.Errorf("inbound: 消息为空")
	}
	body := &msg.Body.FieldMap
	msgType := fix.MsgType(msg)

	switch msgType {
	case fix.MsgTypeExecutionReport:
		return parseExecutionReport(body), nil
	case fix.MsgTypeOrderCancelReject:
		return OrderCancelReject{
			ClOrdID:          fix.Get(body, fix.TagClOrdID),
			OrigClOrdID:      fix.Get(body, fix.TagOrigClOrdID),
			OrderID:          fix.Get(body, fix.TagOrderID),
			OrdStatus:        fix.Get(body, fix.TagOrdStatus),
			CxlRejResponseTo: fix.Get(body, fix.TagCxlRejResponseTo),
			CxlRejReason:     fix.Get(body, fix.TagCxlRejReason),
			Text:             fix.Get(body, fix.TagText),
			TransactTime:     fix.Get(body, fix.TagTransactTime),
		}, nil
	case fix.MsgTypeSecurityList:
		return parseSecurityList(body)
	case fix.MsgTypeCollateralReport:
		return CollateralReport{
			Account:               fix.Get(body, fix.TagAccount),
			Currency:              fix.Get(body, fix.TagCurrency),
			CashOutstanding:       fix.Get(body, fix.TagCashOutstanding),
			StartCash:             fix.Get(body, fix.TagStartCash),
			EndCash:               fix.Get(body, fix.TagEndCash),
			UsedMargin:            fix.Get(body, fix.TagBrokerUsedMargin),
			UsedMarginLiquidation: fix.Get(body, fix.TagBrokerUsedMarginLiquid),
			MarginRatio:           fix.Get(body, fix.TagMarginRatio),
			MarginCall:            fix.Get(body, fix.TagBrokerMarginCall),
			TransactTime:          fix.Get(body, fix.TagTransactTime),
		}, nil
	case fix.MsgTypeCollateralInquiryAck:
		return CollateralInquiryAck{
			CollInquiryID:     fix.Get(body, fix.TagCollInquiryID),
			CollInquiryStatus: fix.Get(body, fix.TagCollInquiryStatus),
			Account:           fix.Get(body, fix.TagAccount),
		}, nil
	case fix.MsgTypeRequestForPositionsAck:
		return RequestForPositionsAck{
			PosReqID:           fix.Get(body, fix.TagPosReqID),
			PosReqResult:       fix.Get(body, fix.TagPosReqResult),
			PosReqStatus:       fix.Get(body, fix.TagPosReqStatus),
			TotalNumPosReports: fix.Get(body, fix.TagTotalNumPosReports),
			Account:            fix.Get(body, fix.TagAccount),
			Text:               fix.Get(body, fix.TagText),
		}, nil
	case fix.MsgTypeMarketDataSnapshot:
		return parseMarketDataSnapshot(body)
	case fix.MsgTypeBusinessMessageReject:
		return BusinessMessageReject{
			RefSeqNum:            fix.Get(body, fix.TagRefSeqNum),
			RefMsgType:           fix.Get(body, fix.TagRefMsgType),
			BusinessRejectReason: fix.Get(body, fix.TagBusinessRejectReason),
			Text:                 fix.Get(body, fix.TagText),
		}, nil
	case fix.MsgTypeTradingSessionStatus:
		return TradingSessionStatus{
			TradSesReqID:     fix.Get(body, fix.TagTradSesReqID),
			TradingSessionID: fix.Get(body, fix.TagTradingSessionID),
			TradSesStatus:    fix.Get(body, fix.TagTradSesStatus),
		}, nil
	case fix.MsgTypePositionReport:
		return PositionReport{
			PosMaintRptID: fix.Get(body, fix.TagPosMaintRptID),
			PosReqID:      fix.Get(body, fix.TagPosReqID),
			Account:       fix.Get(body, fix.TagAccount),
			Symbol:        fix.Get(body, fix.TagSymbol),
			LongQty:       fix.Get(body, fix.TagLongQty),
			ShortQty:      fix.Get(body, fix.TagShortQty),
			SettlPrice:    fix.Get(body, fix.TagSettlPrice),
			ClearingDate:  fix.Get(body, fix.TagClearingBusinessDate),
			TransactTime:  fix.Get(body, fix.TagTransactTime),
		}, nil
	case fix.MsgTypeEmail:
		return parseEmail(body)
	case fix.MsgTypeQuoteStatusReport:
		return QuoteStatusReport{
			QuoteID:     fix.Get(body, fix.TagQuoteID),
			QuoteStatus: fix.Get(body, fix.TagQuoteStatus),
			Symbol:      fix.Get(body, fix.TagSymbol),
			Text:        fix.Get(body, fix.TagText),
		}, nil
	case fix.MsgTypeMarketDataRequestReject:
		return MarketDataRequestReject{
			MDReqID:        fix.Get(body, fix.TagMDReqID),
			MDReqRejReason: fix.Get(body, fix.TagMDReqRejReason),
			Text:           fix.Get(body, fix.TagText),
		}, nil
	default:
		return Unsupported{Type: msgType}, nil
	}
}

func parseExecutionReport(body *quickfix.FieldMap) ExecutionReport {
	return ExecutionReport{
		ClOrdID:      fix.Get(body, fix.TagClOrdID),
		OrigClOrdID:  fix.Get(body, fix.TagOrigClOrdID),
		OrderID:      fix.Get(body, fix.TagOrderID),
		ExecID:       fix.Get(body, fix.TagExecID),
		ExecType:     fix.Get(body, fix.TagExecType),
		OrdStatus:    fix.Get(body, fix.TagOrdStatus),
		Account:      fix.Get(body, fix.TagAccount),
		Symbol:       fix.Get(body, fix.TagSymbol),
		Label:        fix.Get(body, fix.TagSecondaryClOrdID),
		Side:         fix.Get(body, fix.TagSide),
		OrdType:      fix.Get(body, fix.TagOrdType),
		OrderQty:     fix.Get(body, fix.TagOrderQty),
		Price:        fix.Get(body, fix.TagPrice),
		StopPx:       fix.Get(body, fix.TagStopPx),
		TimeInForce:  fix.Get(body, fix.TagTimeInForce),
		ExpireTime:   fix.Get(body, fix.TagExpireTime),
		CumQty:       fix.Get(body, fix.TagCumQty),
		LeavesQty:    fix.Get(body, fix.TagLeavesQty),
		AvgPx:        fix.Get(body, fix.TagAvgPx),
		LastQty:      fix.Get(body, fix.TagLastQty),
		LastPx:       fix.Get(body, fix.TagLastPx),
		Ticket:       fix.Get(body, fix.TagBrokerPositionID),
		TransactTime: fix.Get(body, fix.TagTransactTime),
		OrdRejReason: fix.Get(body, fix.TagOrdRejReason),
		Text:         fix.Get(body, fix.TagText),
		ListID:       fix.Get(body, fix.TagListID),
	}
}

func parseSecurityList(body *quickfix.FieldMap) (Message, error) {
	list := SecurityList{
		SecurityReqID:      fix.Get(body, fix.TagSecurityReqID),
		SecurityResponseID: fix.Get(body, fix.TagSecurityResponseID),
	}
	if !body.Has(fix.TagNoRelatedSym) {
		return list, nil
	}
	group := SecurityListGroup()
	if err := body.GetGroup(group); err != nil {
		return nil, fmt.Errorf("inbound: 读取 NoRelatedSym 失败: %v", err)
	}
	list.Entries = make([]SecurityListEntry, 0, group.Len())
	for i := 0; i < group.Len(); i++ {
		entry := &group.Get(i).FieldMap
		list.Entries = append(list.Entries, SecurityListEntry{
			Symbol:        fix.Get(entry, fix.TagSymbol),
			Currency:      fix.Get(entry, fix.TagCurrency),
			SecurityType:  fix.Get(entry, fix.TagSecurityType),
			MinPriceIncr:  fix.Get(entry, fix.TagMinPriceIncrement),
			PointSize:     fix.Get(entry, fix.TagBrokerSymPointSize),
			Precision:     fix.Get(entry, fix.TagBrokerSymPrecision),
			RoundLot:      fix.Get(entry, fix.TagRoundLot),
			MinTradeVol:   fix.Get(entry, fix.TagMinTradeVol),
			MaxTradeVol:   fix.Get(entry, fix.TagMaxTradeVol),
			CondDistStop:  fix.Get(entry, fix.TagBrokerCondDistStop),
			CondDistLimit: fix.Get(entry, fix.TagBrokerCondDistLimit),
			MarginInit:    fix.Get(entry, fix.TagBrokerMarginInit),
			MarginMaint:   fix.Get(entry, fix.TagBrokerMarginMaint),
			InterestBuy:   fix.Get(entry, fix.TagBrokerSymInterestBuy),
			InterestSell:  fix.Get(entry, fix.TagBrokerSymInterestSell),
		})
	}
	return list, nil
}

func parseMarketDataSnapshot(body *quickfix.FieldMap) (Message, error) {
	snapshot := MarketDataSnapshot{
		MDReqID: fix.Get(body, fix.TagMDReqID),
		Symbol:  fix.Get(body, fix.TagSymbol),
	}
	if !body.Has(fix.TagNoMDEntries) {
		return snapshot, nil
	}
	group := MDEntriesGroup()
	if err := body.GetGroup(group); err != nil {
		return nil, fmt.Errorf("inbound: 读取 NoMDEntries 失败: %v", err)
	}
	snapshot.Entries = make([]MarketDataEntry, 0, group.Len())
	for i := 0; i < group.Len(); i++ {
		entry := &group.Get(i).FieldMap
		snapshot.Entries = append(snapshot.Entries, MarketDataEntry{
			EntryType: fix.Get(entry, fix.TagMDEntryType),
			Price:     fix.Get(entry, fix.TagMDEntryPx),
			Date:      fix.Get(entry, fix.TagMDEntryDate),
			Time:      fix.Get(entry, fix.TagMDEntryTime),
		})
	}
	return snapshot, nil
}

func parseEmail(body *quickfix.FieldMap) (Message, error) {
	email := Email{
		EmailType: fix.Get(body, fix.TagEmailType),
		Subject:   fix.Get(body, fix.TagSubject),
		OrigTime:  fix.Get(body, fix.TagOrigTime),
	}
	if !body.Has(fix.TagNoLinesOfText) {
		return email, nil
	}
	group := LinesOfTextGroup()
	if err := body.GetGroup(group); err != nil {
		return nil, fmt.Errorf("inbound: 读取 NoLinesOfText 失败: %v", err)
	}
	for i := 0; i < group.Len(); i++ {
		email.Lines = append(email.Lines, fix.Get(&group.Get(i).FieldMap, fix.TagText))
	}
	return email, nil
}
