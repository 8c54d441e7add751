package orderid

import (
	"strconv"
	"strings"

	"fix-gateway/internal/domain"
)

// ReplaceMarker 为改单、撤单请求编号中的序列标记。
const ReplaceMarker = "_R"

// Canonicalize 去掉第一个 _R 标记及其后的全部内容，得到根订单编号。
// 没有标记时原样返回。
func Canonicalize(raw string) domain.OrderID {
	if idx := strings.Index(raw, ReplaceMarker); idx >= 0 {
		return domain.OrderID(raw[:idx])
	}
	return domain.OrderID(raw)
}

// Correlator 为撤单和改单签发带序列号的请求编号。
// 仅由会话执行器访问。
type Correlator struct {
	seq map[domain.OrderID]int
}

func NewCorrelator() *Correlator {
	return &Correlator{seq: make(map[domain.OrderID]int)}
}

// Canonicalize 见包级函数 Canonicalize。
func (c *Correlator) Canonicalize(raw string) domain.OrderID {
	return Canonicalize(raw)
}

// NextRequestID 返回 root_R<n>，n 从 1 开始递增。
func (c *Correlator) NextRequestID(root domain.OrderID) string {
	root = Canonicalize(string(root))
	c.seq[root]++
	return string(root) + ReplaceMarker + strconv.Itoa(c.seq[root])
}

// Forget 在订单进入终态后释放序列。
func (c *Correlator) Forget(root domain.OrderID) {
	delete(c.seq, root)
}
