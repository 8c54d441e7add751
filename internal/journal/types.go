package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// KindError 为网关内部异常使用的类型，不属于领域事件。
const KindError = "error"

// Entry 为一条已持久化的事件记录。
type Entry struct {
	Seq        int64           `json:"seq"`
	EventID    uuid.UUID       `json:"event_id"`
	Kind       string          `json:"kind"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Query 为检索条件，空字段表示不过滤。
type Query struct {
	Kind  string
	Key   string
	Limit int
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
