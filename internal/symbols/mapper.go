package symbols

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"fix-gateway/internal/domain"
)

// ErrConflict 表示映射违反一一对应关系。
var ErrConflict = errors.New("symbols: mapping conflict")

// Mapping 为一条经纪商代码与内部标的的对应关系。
type Mapping struct {
	Broker   string
	Internal domain.Symbol
}

// Mapper 维护经纪商代码与内部标的之间的双向映射。
type Mapper struct {
	venue string
	// derive 为 true 时允许从证券列表推导内部代码。
	derive bool

	mu         sync.RWMutex
	toInternal map[string]domain.Symbol
	toBroker   map[domain.Symbol]string
	order      []domain.Symbol
}

// NewMapper 由配置构建映射表，任何冲突都视为配置错误。
func NewMapper(venue string, mappings []Mapping, derive bool) (*Mapper, error) {
	m := &Mapper{
		venue:      strings.ToUpper(strings.TrimSpace(venue)),
		derive:     derive,
		toInternal: make(map[string]domain.Symbol, len(mappings)),
		toBroker:   make(map[domain.Symbol]string, len(mappings)),
	}
	for _, mapping := range mappings {
		if err := m.Register(mapping.Broker, mapping.Internal); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Venue 返回映射所属场所。
func (m *Mapper) Venue() string {
	return m.venue
}

// ToInternal 将经纪商代码转换为内部标的。
func (m *Mapper) ToInternal(brokerCode string) (domain.Symbol, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sym, ok := m.toInternal[brokerCode]
	return sym, ok
}

// ToBroker 将内部标的转换为经纪商代码。
func (m *Mapper) ToBroker(symbol domain.Symbol) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.toBroker[symbol]
	return code, ok
}

// Register 新增一条映射；重复注册相同映射是幂等的。
func (m *Mapper) Register(brokerCode string, symbol domain.Symbol) error {
	brokerCode = strings.TrimSpace(brokerCode)
	if brokerCode == "" {
		return fmt.Errorf("%w: 经纪商代码为空", ErrConflict)
	}
	if symbol.Code == "" || symbol.Venue == "" {
		return fmt.Errorf("%w: 内部标的 %q 不完整", ErrConflict, symbol.String())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.toInternal[brokerCode]; ok {
		if existing != symbol {
			return fmt.Errorf("%w: 经纪商代码 %q 已映射到 %s，不能再映射到 %s", ErrConflict, brokerCode, existing, symbol)
		}
		return nil
	}
	if existing, ok := m.toBroker[symbol]; ok {
		return fmt.Errorf("%w: 内部标的 %s 已映射到 %q，不能再映射到 %q", ErrConflict, symbol, existing, brokerCode)
	}

	m.toInternal[brokerCode] = symbol
	m.toBroker[symbol] = brokerCode
	m.order = append(m.order, symbol)
	return nil
}

// Resolve 解析证券列表中的经纪商代码。未知代码在允许推导时自动注册，
// 否则返回场所下的占位标的，第二个返回值表示是否成功解析。
func (m *Mapper) Resolve(brokerCode string) (domain.Symbol, bool) {
	if sym, ok := m.ToInternal(brokerCode); ok {
		return sym, true
	}
	if !m.derive {
		return domain.UnknownSymbol(m.venue), false
	}
	sym := DeriveSymbol(brokerCode, m.venue)
	if sym.Code == "" {
		return domain.UnknownSymbol(m.venue), false
	}
	if err := m.Register(brokerCode, sym); err != nil {
		return domain.UnknownSymbol(m.venue), false
	}
	return sym, true
}

// Symbols 按注册顺序返回全部内部标的。
func (m *Mapper) Symbols() []domain.Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Symbol(nil), m.order...)
}

// Len 返回映射数量。
func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// DeriveSymbol 去除经纪商代码中的分隔符得到内部代码，例如 AUD/USD -> AUDUSD。
func DeriveSymbol(brokerCode, venue string) domain.Symbol {
	var b strings.Builder
	for _, r := range brokerCode {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return domain.NewSymbol(b.String(), venue)
}
