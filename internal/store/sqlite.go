package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现），以单表保存键值数据。
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开 SQLite 数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	// 说明：modernc sqlite 的 DSN 可直接使用文件路径，或以 'file:...' 前缀表示
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// migrate 执行建表语句，保持幂等。
func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blobs (
            key TEXT PRIMARY KEY,
            value BLOB NOT NULL,
            updated_at TIMESTAMP
        );`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// Put 插入或覆盖 key 对应的值。
func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO blobs(key, value, updated_at)
        VALUES(?,?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get 读取 key 对应的值，不存在时返回 ErrNotFound。
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// Delete 删除 key，不存在时不报错。
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Reset 清空全部键值（不删除数据库文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs`); err != nil {
		return fmt.Errorf("delete blobs: %w", err)
	}
	return nil
}
