package outbound

import (
	"github.com/quickfixgo/quickfix"

	"fix-gateway/internal/fix"
)

// Finalizer 在消息交给引擎发送前做最后处理。
type Finalizer struct {
	account        string
	sendAccountTag bool
}

func NewFinalizer(account string, sendAccountTag bool) *Finalizer {
	return &Finalizer{account: account, sendAccountTag: sendAccountTag}
}

// Finalize 按配置附加 Account (1)，并对带 PossDupFlag=Y 的消息返回 false，
// 调用方应放弃发送而不是视为错误。
func (f *Finalizer) Finalize(msg *quickfix.Message) bool {
	if IsPossDup(msg) {
		return false
	}
	if f.sendAccountTag && f.account != "" && !msg.Body.Has(fix.TagAccount) {
		msg.Body.SetString(fix.TagAccount, f.account)
	}
	return true
}

// IsPossDup 判断消息头是否带有 PossDupFlag=Y。
func IsPossDup(msg *quickfix.Message) bool {
	return fix.Get(&msg.Header.FieldMap, fix.TagPossDupFlag) == fix.YesFlag
}
