package inbound

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fix-gateway/internal/domain"
	"fix-gateway/internal/fields"
)

var errMissingField = errors.New("required field missing")

// parser 记录单条消息转换过程中遇到的第一个字段错误。
type parser struct {
	msgType string
	first   *domain.TranslationError
}

func (p *parser) fail(field, value string, err error) {
	if p.first == nil {
		p.first = &domain.TranslationError{MsgType: p.msgType, Field: field, Value: value, Err: err}
	}
}

func (p *parser) err() error {
	if p.first == nil {
		return nil
	}
	return p.first
}

func (p *parser) required(field, value string) string {
	if value == "" {
		p.fail(field, value, errMissingField)
	}
	return value
}

// decimal 按原样精度解析，空值在非必填时为零。
func (p *parser) decimal(field, value string, required bool) decimal.Decimal {
	if value == "" {
		if required {
			p.fail(field, value, errMissingField)
		}
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		p.fail(field, value, err)
		return decimal.Zero
	}
	return d
}

func (p *parser) executionTime(field, value string) time.Time {
	ts, err := fields.ParseExecutionTime(value)
	if err != nil {
		p.fail(field, value, err)
	}
	return ts
}
