package inbound

// Message 为入站应用消息解析后的标签联合，每个变体只携带自身需要的原始字段。
type Message interface {
	MsgType() string
	inbound()
}

type ExecutionReport struct {
	ClOrdID      string
	OrigClOrdID  string
	OrderID      string
	ExecID       string
	ExecType     string
	OrdStatus    string
	Account      string
	Symbol       string
	Label        string
	Side         string
	OrdType      string
	OrderQty     string
	Price        string
	StopPx       string
	TimeInForce  string
	ExpireTime   string
	CumQty       string
	LeavesQty    string
	AvgPx        string
	LastQty      string
	LastPx       string
	Ticket       string
	TransactTime string
	OrdRejReason string
	Text         string
	ListID       string
}

type OrderCancelReject struct {
	ClOrdID          string
	OrigClOrdID      string
	OrderID          string
	OrdStatus        string
	CxlRejResponseTo string
	CxlRejReason     string
	Text             string
	TransactTime     string
}

// SecurityListEntry 对应 NoRelatedSym 重复组中的一项。
type SecurityListEntry struct {
	Symbol        string
	Currency      string
	SecurityType  string
	MinPriceIncr  string
	PointSize     string
	Precision     string
	RoundLot      string
	MinTradeVol   string
	MaxTradeVol   string
	CondDistStop  string
	CondDistLimit string
	MarginInit    string
	MarginMaint   string
	InterestBuy   string
	InterestSell  string
}

type SecurityList struct {
	SecurityReqID      string
	SecurityResponseID string
	Entries            []SecurityListEntry
}

type CollateralReport struct {
	Account               string
	Currency              string
	CashOutstanding       string
	StartCash             string
	EndCash               string
	UsedMargin            string
	UsedMarginLiquidation string
	MarginRatio           string
	MarginCall            string
	TransactTime          string
}

type CollateralInquiryAck struct {
	CollInquiryID     string
	CollInquiryStatus string
	Account           string
}

type RequestForPositionsAck struct {
	PosReqID           string
	PosReqResult       string
	PosReqStatus       string
	TotalNumPosReports string
	Account            string
	Text               string
}

// MarketDataEntry 对应 NoMDEntries 重复组中的一项。
type MarketDataEntry struct {
	EntryType string
	Price     string
	Date      string
	Time      string
}

type MarketDataSnapshot struct {
	MDReqID string
	Symbol  string
	Entries []MarketDataEntry
}

type BusinessMessageReject struct {
	RefSeqNum            string
	RefMsgType           string
	BusinessRejectReason string
	Text                 string
}

type TradingSessionStatus struct {
	TradSesReqID     string
	TradingSessionID string
	TradSesStatus    string
}

type PositionReport struct {
	PosMaintRptID string
	PosReqID      string
	Account       string
	Symbol        string
	LongQty       string
	ShortQty      string
	SettlPrice    string
	ClearingDate  string
	TransactTime  string
}

type Email struct {
	EmailType string
	Subject   string
	Lines     []string
	OrigTime  string
}

type QuoteStatusReport struct {
	QuoteID     string
	QuoteStatus string
	Symbol      string
	Text        string
}

type MarketDataRequestReject struct {
	MDReqID        string
	MDReqRejReason string
	Text           string
}

// Unsupported 表示未识别的应用层消息类型。
type Unsupported struct {
	Type string
}

func (ExecutionReport) MsgType() string         { return "8" }
func (OrderCancelReject) MsgType() string       { return "9" }
func (SecurityList) MsgType() string            { return "y" }
func (CollateralReport) MsgType() string        { return "BA" }
func (CollateralInquiryAck) MsgType() string    { return "BG" }
func (RequestForPositionsAck) MsgType() string  { return "AO" }
func (MarketDataSnapshot) MsgType() string      { return "W" }
func (BusinessMessageReject) MsgType() string   { return "j" }
func (TradingSessionStatus) MsgType() string    { return "h" }
func (PositionReport) MsgType() string          { return "AP" }
func (Email) MsgType() string                   { return "C" }
func (QuoteStatusReport) MsgType() string       { return "AI" }
func (MarketDataRequestReject) MsgType() string { return "Y" }
func (u Unsupported) MsgType() string           { return u.Type }

func (ExecutionReport) inbound()         {}
func (OrderCancelReject) inbound()       {}
func (SecurityList) inbound()            {}
func (CollateralReport) inbound()        {}
func (CollateralInquiryAck) inbound()    {}
func (RequestForPositionsAck) inbound()  {}
func (MarketDataSnapshot) inbound()      {}
func (BusinessMessageReject) inbound()   {}
func (TradingSessionStatus) inbound()    {}
func (PositionReport) inbound()          {}
func (Email) inbound()                   {}
func (QuoteStatusReport) inbound()       {}
func (MarketDataRequestReject) inbound() {}
func (Unsupported) inbound()             {}
