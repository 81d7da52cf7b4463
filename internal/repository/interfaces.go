// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス完全一致でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithCart はユーザーと初期カートを同一トランザクションで作成する。
	// メールアドレスが既に存在する場合はEMAIL_TAKENのAPIErrorを返す。
	CreateWithCart(ctx context.Context, user *model.User, cart *model.Cart) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// CartRepository はカートとカート明細の永続化インターフェース。
// カートとカート明細のライフサイクルはこのリポジトリだけが所有する。
type CartRepository interface {
	// GetOrCreate はユーザーの現在のカートIDを返す。存在しない場合は
	// 新しい空のカートを作成して返す。部分ユニークインデックスにより
	// 同一ユーザーへの同時呼び出しでもカートは高々1つしか作られない。
	GetOrCreate(ctx context.Context, userID string) (string, error)

	// FindCurrentByUserID はユーザーの現在のカートを返す。
	// カートが存在しない場合はnilを返す（作成はしない）。
	FindCurrentByUserID(ctx context.Context, userID string) (*model.Cart, error)

	// ReplaceItems は指定カートの明細を渡された集合で完全に置き換える。
	// 全明細の削除と再挿入を単一トランザクションで行い、部分的な
	// 置き換えが観測されることはない。
	ReplaceItems(ctx context.Context, cartID string, items []model.CartItemInput) error

	// ListItems はカート明細を商品の表示情報付きで返す。
	// 明細がない場合は空スライスを返す。
	ListItems(ctx context.Context, cartID string) ([]model.CartLine, error)

	// DeleteStaleCarts は現在のカートでなくなってから保持期間を超えた
	// カートを削除する。明細はCASCADE削除される。削除件数を返す。
	DeleteStaleCarts(ctx context.Context, retentionDays int) (int64, error)
}

// ProductRepository は商品カタログの永続化インターフェース。
// 在庫数の変更は含まない（在庫はStockLedgerが所有する）。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// List は全商品を作成日時順で返す。
	List(ctx context.Context) ([]*model.Product, error)

	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品の名前・説明・価格・カテゴリを更新する。
	// 商品が存在しない場合はNOT_FOUNDのAPIErrorを返す。
	Update(ctx context.Context, product *model.Product) error

	// UpdateRating は商品の評価・評価数・取得日時を更新する。
	UpdateRating(ctx context.Context, productID string, rating float64, numRatings int, fetchedAt time.Time) error

	// ListNeedingRatingRefresh は評価の再取得が必要な商品を返す。
	// rating_fetched_atがNULL（未取得）を優先し、次に古い順に返す。
	ListNeedingRatingRefresh(ctx context.Context, ttl time.Duration, limit int) ([]*model.Product, error)
}

// StockLedger は在庫台帳のインターフェース。
// 商品在庫の変更はすべてこの台帳を経由する。各操作はアトミックな
// 条件付きUPDATEで実装され、在庫が負になることはない。
type StockLedger interface {
	// GetStock は指定商品の在庫数を返す。
	// 商品が存在しない場合はNOT_FOUNDのAPIErrorを返す。
	GetStock(ctx context.Context, productID string) (int, error)

	// AdjustStock は在庫にdeltaをアトミックに適用する。
	// 適用後の在庫が負になる場合はINSUFFICIENT_STOCK、商品が
	// 存在しない場合はNOT_FOUNDのAPIErrorを返す。
	AdjustStock(ctx context.Context, productID string, delta int) error

	// DecrementAll は複数商品の在庫減算を単一トランザクションで行う。
	// 1件でも失敗した場合は全減算をロールバックし、失敗した商品を
	// 示すAPIError（NOT_FOUNDまたはINSUFFICIENT_STOCK）を返す。
	DecrementAll(ctx context.Context, items []model.CartItemInput) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
