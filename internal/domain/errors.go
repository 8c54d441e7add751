package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSymbolNotFound 表示标的映射缺失。
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnsupportedMessage 表示收到未支持的应用层消息类型。
	ErrUnsupportedMessage = errors.New("unsupported message type")
	// ErrNotConnected 表示主会话尚未登录。
	ErrNotConnected = errors.New("session not logged on")
	// ErrMaintainConnectionOff 表示未处于保持连接状态却收到会话创建回调。
	ErrMaintainConnectionOff = errors.New("session created while maintain connection is off")
)

// SessionError 描述会话连接、登录相关的异常，仅记录日志不会导致进程退出。
type SessionError struct {
	Session string
	Op      string
	Err     error
}

func (e *SessionError) Error() string {
	if e.Session == "" {
		return fmt.Sprintf("session %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session %s [%s]: %v", e.Op, e.Session, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// TranslationError 描述单条入站消息的转换失败，该消息被丢弃，处理继续。
type TranslationError struct {
	MsgType string
	Field   string
	Value   string
	Err     error
}

func (e *TranslationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("translate %s: %v", e.MsgType, e.Err)
	}
	return fmt.Sprintf("translate %s field %s=%q: %v", e.MsgType, e.Field, e.Value, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// ValidationError 描述命令或事件字段不合法。
type ValidationError struct {
	Subject string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Subject, e.Field, e.Reason)
}

// NewValidationError 构造 ValidationError。
func NewValidationError(subject, field, reason string) *ValidationError {
	return &ValidationError{Subject: subject, Field: field, Reason: reason}
}

// IsValidationError 判断错误链中是否包含 ValidationError。
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTranslationError 判断错误链中是否包含 TranslationError。
func IsTranslationError(err error) bool {
	var target *TranslationError
	return errors.As(err, &target)
}
