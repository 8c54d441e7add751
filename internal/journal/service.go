// Package journal 将总线上的领域事件写入 SQLite，供排障与 /events 查询。
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fix-gateway/internal/bus"
	"fix-gateway/internal/domain"
	"fix-gateway/internal/store"
)

const (
	sinkName     = "journal"
	defaultLimit = 100
)

// Service 负责持久化事件。
type Service struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

var _ bus.Sink = (*Service)(nil)

// NewService 初始化事件日志，创建所需表结构。
func NewService(store *store.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("journal: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:     store.DB(),
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS journal_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id    TEXT NOT NULL UNIQUE,
	kind        TEXT NOT NULL,
	event_key   TEXT NOT NULL,
	payload     TEXT NOT NULL,
	occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_events_kind ON journal_events(kind);
CREATE INDEX IF NOT EXISTS idx_journal_events_key ON journal_events(event_key);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("journal: 初始化表失败: %w", err)
	}
	return nil
}

// Name 实现 bus.Sink。
func (s *Service) Name() string { return sinkName }

// Handle 实现 bus.Sink，将事件序列化后写入。
func (s *Service) Handle(ctx context.Context, event domain.Event) error {
	env, err := bus.NewEnvelope(event)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return s.Record(ctx, env)
}

// Record 写入单个事件，重复的事件编号会被忽略。
func (s *Service) Record(ctx context.Context, env bus.Envelope) error {
	if env.OccurredAt.IsZero() {
		env.OccurredAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO journal_events (event_id, kind, event_key, payload, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		env.ID.String(), string(env.Kind), env.Key, string(env.Payload), env.OccurredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("journal: 写入事件失败: %w", err)
	}

	return nil
}

// RecordError 记录异常，失败时只打日志。
func (s *Service) RecordError(ctx context.Context, msg string, err error, ctxMap map[string]interface{}) {
	payload := ErrorPayload{Message: msg, Context: ctxMap}
	if err != nil {
		payload.Error = err.Error()
	}
	raw, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		s.logger.Warn("序列化异常事件失败", zap.Error(marshalErr))
		return
	}

	env := bus.Envelope{
		ID:         uuid.New(),
		Kind:       domain.EventKind(KindError),
		Key:        KindError,
		OccurredAt: s.now(),
		Payload:    raw,
	}
	if recErr := s.Record(ctx, env); recErr != nil {
		s.logger.Warn("记录异常事件失败", zap.Error(recErr))
	}
}

// ListEvents 按条件检索最近事件，按写入顺序倒序返回。
func (s *Service) ListEvents(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, event_id, kind, event_key, payload, occurred_at FROM journal_events WHERE 1 = 1`
	args := make([]interface{}, 0, 3)
	if q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, q.Kind)
	}
	if q.Key != "" {
		query += ` AND event_key = ?`
		args = append(args, q.Key)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: 查询事件失败: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry    Entry
			eventID  string
			payload  string
			occurred string
		)
		if scanErr := rows.Scan(&entry.Seq, &eventID, &entry.Kind, &entry.Key, &payload, &occurred); scanErr != nil {
			return nil, fmt.Errorf("journal: 解析事件失败: %w", scanErr)
		}

		if entry.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, fmt.Errorf("journal: 事件编号 %q 无效: %w", eventID, err)
		}
		ts, parseErr := time.Parse(time.RFC3339Nano, occurred)
		if parseErr != nil {
			s.logger.Debug("事件时间无法解析", zap.String("occurred_at", occurred), zap.Error(parseErr))
		}
		entry.OccurredAt = ts
		entry.Payload = json.RawMessage(payload)

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: 读取事件失败: %w", err)
	}

	return entries, nil
}
