package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresStockLedger はPostgreSQLを使用した在庫台帳。
// すべての在庫変更はアトミックな条件付きUPDATE
// （UPDATE ... SET stock = stock + delta WHERE id = ? AND stock + delta >= 0）
// で行い、影響行数で成否を判定する。アプリケーション層で
// SELECTしてから計算して書き戻す方式は同時実行で在庫が負に
// なり得るため使用しない。
type PostgresStockLedger struct {
	db *sql.DB
}

// NewPostgresStockLedger はPostgresStockLedgerを生成する。
func NewPostgresStockLedger(db *sql.DB) *PostgresStockLedger {
	return &PostgresStockLedger{db: db}
}

// GetStock は指定商品の在庫数を返す。
// 商品が存在しない場合はNOT_FOUNDのAPIErrorを返す。
func (l *PostgresStockLedger) GetStock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := l.db.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = $1`,
		productID,
	).Scan(&stock)

	if err == sql.ErrNoRows {
		return 0, model.NewProductNotFoundError(productID)
	}
	if err != nil {
		return 0, fmt.Errorf("在庫数の取得に失敗しました: %w", err)
	}
	return stock, nil
}

// AdjustStock は在庫にdeltaをアトミックに適用する。
// 適用後の在庫が負になる場合はINSUFFICIENT_STOCK、商品が存在しない
// 場合はNOT_FOUNDのAPIErrorを返す。
func (l *PostgresStockLedger) AdjustStock(ctx context.Context, productID string, delta int) error {
	result, err := l.db.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock + $2, updated_at = now()
		 WHERE id = $1 AND stock + $2 >= 0`,
		productID, delta,
	)
	if err != nil {
		return fmt.Errorf("在庫の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return l.classifyFailure(ctx, l.db, productID)
	}
	return nil
}

// DecrementAll は複数商品の在庫減算を単一トランザクションで行う。
// 1件でも失敗した場合は全減算をロールバックし、失敗した商品を示す
// APIErrorを返す。条件付きUPDATEは対象行をロックするため、同一商品
// への同時チェックアウトが合計で在庫を超えて成功することはない。
func (l *PostgresStockLedger) DecrementAll(ctx context.Context, items []model.CartItemInput) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		result, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET stock = stock - $2, updated_at = now()
			 WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("在庫の減算に失敗しました (product_id=%s): %w", item.ProductID, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
		}
		if rowsAffected == 0 {
			// deferのRollbackがここまでの減算を全て取り消す
			return l.classifyFailure(ctx, tx, item.ProductID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// queryRower はQueryRowContextを持つ実行対象（*sql.DB / *sql.Tx）。
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// classifyFailure は条件付きUPDATEが空振りした原因を判定する。
// 商品が存在しなければNOT_FOUND、存在すれば在庫不足。
func (l *PostgresStockLedger) classifyFailure(ctx context.Context, q queryRower, productID string) error {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`,
		productID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("商品の存在確認に失敗しました: %w", err)
	}
	if !exists {
		return model.NewProductNotFoundError(productID)
	}
	return model.NewInsufficientStockError(productID)
}

// compile-time interface check
var _ StockLedger = (*PostgresStockLedger)(nil)
