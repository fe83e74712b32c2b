// Package database 提供PostgreSQL连接与访问封装
package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lunban/lunban/internal/config"
	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

// slowQueryThreshold 慢查询告警阈值
const slowQueryThreshold = 200 * time.Millisecond

// DB 数据库访问封装：连接池加慢查询日志。
// 仓储层通过 ExecContext/QueryContext/QueryRowContext 访问，都会被计时；
// Transaction 内的语句直接走 *sql.Tx，不计时。
type DB struct {
	conn *sql.DB
	log  zerolog.Logger
}

// Open 建立连接池并验证连通性
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "打开数据库连接失败")
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "数据库连通性检查失败")
	}

	db := &DB{conn: conn, log: logger.Component("db")}
	db.log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("数据库就绪")
	return db, nil
}

// Close 关闭连接池
func (db *DB) Close() error {
	db.log.Info().Msg("断开数据库")
	return db.conn.Close()
}

// Health 连通性检查，/health 在有库模式下调用
func (db *DB) Health(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// ExecContext 执行语句并记录慢查询
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, args...)
	db.observe(query, time.Since(start))
	return result, err
}

// QueryContext 查询并记录慢查询
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	db.observe(query, time.Since(start))
	return rows, err
}

// QueryRowContext 单行查询并记录慢查询
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, query, args...)
	db.observe(query, time.Since(start))
	return row
}

// observe 超过阈值的语句记警告
func (db *DB) observe(query string, elapsed time.Duration) {
	if elapsed < slowQueryThreshold {
		return
	}
	db.log.Warn().
		Dur("elapsed", elapsed).
		Str("query", compactQuery(query)).
		Msg("慢查询")
}

// compactQuery 压缩SQL用于日志输出
func compactQuery(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) > 120 {
		q = q[:120] + "..."
	}
	return q
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚。
// Commit 之后的 Rollback 是 no-op。
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "开始事务失败")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "提交事务失败")
	}
	return nil
}

// Migrate 建立排班引擎所需的数据表
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			group_id TEXT NOT NULL,
			is_night_leader BOOLEAN NOT NULL DEFAULT FALSE,
			sequence_order INT NOT NULL DEFAULT 0,
			avoidance_group_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS avoidance_rules (
			id UUID PRIMARY KEY,
			name TEXT,
			member_ids TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS shifts (
			id UUID PRIMARY KEY,
			shift_date DATE NOT NULL,
			group_id TEXT NOT NULL,
			employee_id UUID NOT NULL,
			shift_type TEXT NOT NULL,
			seat_type TEXT,
			label TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (shift_date, group_id, employee_id)
		)`,
		`CREATE TABLE IF NOT EXISTS system_config (
			config_key TEXT PRIMARY KEY,
			config_value TEXT NOT NULL,
			description TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_date_group ON shifts (shift_date, group_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "建表失败")
		}
	}
	return nil
}
