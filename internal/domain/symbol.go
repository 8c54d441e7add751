package domain

import "strings"

// UnknownCode 为无法解析的经纪商代码使用的占位代码。
const UnknownCode = "UNKNOWN"

// Symbol 表示平台内部的交易标的，格式为 CODE.VENUE。
type Symbol struct {
	Code  string `json:"code"`
	Venue string `json:"venue"`
}

// NewSymbol 创建标的，代码与场所统一为大写。
func NewSymbol(code, venue string) Symbol {
	return Symbol{
		Code:  strings.ToUpper(strings.TrimSpace(code)),
		Venue: strings.ToUpper(strings.TrimSpace(venue)),
	}
}

// UnknownSymbol 返回指定场所下的占位标的。
func UnknownSymbol(venue string) Symbol {
	return NewSymbol(UnknownCode, venue)
}

func (s Symbol) String() string {
	return s.Code + "." + s.Venue
}

// IsZero 判断标的是否为空。
func (s Symbol) IsZero() bool {
	return s.Code == "" && s.Venue == ""
}

// IsUnknown 判断是否为占位标的。
func (s Symbol) IsUnknown() bool {
	return s.Code == UnknownCode
}
