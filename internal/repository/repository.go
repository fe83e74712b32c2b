// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
)

// DB 仓储所需的最小数据库接口，*sql.DB 与 *sql.Tx 均满足
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TxRunner 支持事务回调的数据库。仓储在可用时用它保证多条写入的原子性。
type TxRunner interface {
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}
