package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// GetOrCreate はユーザーの現在のカートIDを返す。存在しない場合は作成する。
// carts (user_id) WHERE current の部分ユニークインデックスに対する
// ON CONFLICT DO NOTHING により、同一ユーザーへの同時呼び出しが
// 競合しても現在のカートは高々1つしか作られない。敗者はINSERTが
// 空振りし、直後のSELECTで勝者のカートIDを取得する。
func (r *PostgresCartRepo) GetOrCreate(ctx context.Context, userID string) (string, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, current, created_at)
		 VALUES ($1, $2, true, $3)
		 ON CONFLICT (user_id) WHERE current DO NOTHING`,
		uuid.New().String(), userID, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("カートの作成に失敗しました: %w", err)
	}

	var cartID string
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1 AND current`,
		userID,
	).Scan(&cartID)
	if err != nil {
		return "", fmt.Errorf("現在のカートの取得に失敗しました: %w", err)
	}

	return cartID, nil
}

// FindCurrentByUserID はユーザーの現在のカートを返す。存在しない場合はnilを返す。
func (r *PostgresCartRepo) FindCurrentByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, current, created_at
		 FROM carts WHERE user_id = $1 AND current`,
		userID,
	).Scan(&cart.ID, &cart.UserID, &cart.Current, &cart.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("現在のカートの検索に失敗しました: %w", err)
	}

	return cart, nil
}

// ReplaceItems は指定カートの明細を渡された集合で完全に置き換える。
// 削除と再挿入を単一トランザクションで行うため、途中状態が他の
// リクエストから観測されることはない。挿入に失敗した場合は削除も
// 含めて全体がロールバックされる。
func (r *PostgresCartRepo) ReplaceItems(ctx context.Context, cartID string, items []model.CartItemInput) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 既存明細を全削除
	_, err = tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1`,
		cartID,
	)
	if err != nil {
		return fmt.Errorf("カート明細の削除に失敗しました: %w", err)
	}

	// 新しい明細を挿入
	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity)
			 VALUES ($1, $2, $3)`,
			cartID, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("カート明細の挿入に失敗しました (product_id=%s): %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListItems はカート明細を商品の表示情報付きで返す。明細がない場合は空スライスを返す。
func (r *PostgresCartRepo) ListItems(ctx context.Context, cartID string) ([]model.CartLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ci.product_id, ci.quantity, p.price, p.name
		 FROM cart_items ci
		 JOIN products p ON ci.product_id = p.id
		 WHERE ci.cart_id = $1
		 ORDER BY p.name ASC`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("カート明細の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var line model.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.Price, &line.Title); err != nil {
			return nil, fmt.Errorf("カート明細行の読み取りに失敗しました: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カート明細の走査に失敗しました: %w", err)
	}
	return lines, nil
}

// DeleteStaleCarts は現在のカートでなくなってから保持期間を超えたカートを削除する。
// 明細はCASCADE削除される。冪等: 削除対象がない場合でもエラーにならない。
func (r *PostgresCartRepo) DeleteStaleCarts(ctx context.Context, retentionDays int) (int64, error) {
	interval := fmt.Sprintf("%d days", retentionDays)

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM carts WHERE NOT current AND created_at < now() - $1::interval`,
		interval,
	)
	if err != nil {
		return 0, fmt.Errorf("過去カートの削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
