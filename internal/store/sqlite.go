package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"fix-gateway/internal/config"
)

// Store 封装 SQLite 连接。
type Store struct {
	db *sql.DB
}

// NewSQLite 根据配置初始化 SQLite 存储。
// 内存库每个连接相互独立，因此固定为单连接。
func NewSQLite(cfg config.DatabaseConfig) (*Store, error) {
	dsn := cfg.Path
	maxOpen := cfg.MaxOpenConns
	if cfg.InMemory {
		dsn = ":memory:"
		maxOpen = 1
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 数据库失败: %w", err)
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.InMemory {
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []struct {
		stmt string
		desc string
	}{
		{"PRAGMA journal_mode=WAL;", "设置 SQLite WAL 模式失败"},
		{"PRAGMA synchronous=NORMAL;", "设置 SQLite 同步级别失败"},
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p.stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", p.desc, err)
		}
	}

	return &Store{db: conn}, nil
}

// DB 返回底层 *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping 检查数据库可用性。
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: 数据库不可用: %w", err)
	}
	return nil
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败: %w", path, err)
	}
	return nil
}
