package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品カタログリポジトリ。
// 在庫数の変更は扱わない（PostgresStockLedgerが所有する）。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, name, description, price, stock, rating, num_ratings, category, rating_fetched_at, created_at, updated_at`

// scanProduct は1行から商品を読み取る。
func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Rating, &p.NumRatings, &p.Category, &p.RatingFetchedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	return p, nil
}

// List は全商品を作成日時順で返す。
func (r *PostgresProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("商品行の読み取りに失敗しました: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("商品一覧の走査に失敗しました: %w", err)
	}
	return products, nil
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, p *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, stock, rating, num_ratings, category, rating_fetched_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock,
		p.Rating, p.NumRatings, p.Category, p.RatingFetchedAt,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("商品の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は商品の名前・説明・価格・カテゴリを更新する。
// 商品が存在しない場合はNOT_FOUNDのAPIErrorを返す。
func (r *PostgresProductRepo) Update(ctx context.Context, p *model.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, category = $5, updated_at = now()
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Category,
	)
	if err != nil {
		return fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewProductNotFoundError(p.ID)
	}
	return nil
}

// UpdateRating は商品の評価・評価数・取得日時を更新する。
func (r *PostgresProductRepo) UpdateRating(ctx context.Context, productID string, rating float64, numRatings int, fetchedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET rating = $2, num_ratings = $3, rating_fetched_at = $4, updated_at = now()
		 WHERE id = $1`,
		productID, rating, numRatings, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("商品評価の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewProductNotFoundError(productID)
	}
	return nil
}

// ListNeedingRatingRefresh は評価の再取得が必要な商品を返す。
// rating_fetched_atがNULL（未取得）を優先し、次に古い順に返す。
func (r *PostgresProductRepo) ListNeedingRatingRefresh(ctx context.Context, ttl time.Duration, limit int) ([]*model.Product, error) {
	interval := fmt.Sprintf("%d seconds", int(ttl.Seconds()))

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE rating_fetched_at IS NULL OR rating_fetched_at < now() - $1::interval
		 ORDER BY rating_fetched_at ASC NULLS FIRST
		 LIMIT $2`,
		interval, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("評価再取得対象商品の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("商品行の読み取りに失敗しました: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("評価再取得対象商品の走査に失敗しました: %w", err)
	}
	return products, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
