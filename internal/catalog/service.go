// Package catalog は商品カタログの管理操作を提供する。
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// RatingFetcher は外部の評価情報プロバイダへの問い合わせインターフェース。
type RatingFetcher interface {
	// FetchRating は商品名で評価情報を検索する。
	// 見つからない場合は(0, 0, nil)を返す。
	FetchRating(ctx context.Context, query string) (rating float64, numRatings int, err error)
}

// Service は商品カタログのサービス層。
// 名前や説明など外部入力のテキストはサニタイズしてから保存する。
type Service struct {
	productRepo repository.ProductRepository
	fetcher     RatingFetcher
	sanitizer   *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
// fetcherはnilでもよい（評価は中立値{0, 0}で登録される）。
func NewService(productRepo repository.ProductRepository, fetcher RatingFetcher) *Service {
	return &Service{
		productRepo: productRepo,
		fetcher:     fetcher,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// ProductInput は商品の登録・更新入力。
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
}

// AddProduct は新しい商品をカタログに登録する。
// 評価情報は外部プロバイダから商品名で検索して取り込む。プロバイダが
// 利用できない・見つからない場合は中立値{0, 0}で登録し、登録自体は
// 失敗させない。
func (s *Service) AddProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	rating, numRatings := 0.0, 0
	var fetchedAt *time.Time
	if s.fetcher != nil {
		r, n, err := s.fetcher.FetchRating(ctx, input.Name)
		if err != nil {
			slog.Warn("評価情報の取得に失敗したため中立値で登録します",
				slog.String("query", input.Name),
				slog.String("error", err.Error()),
			)
		} else {
			rating, numRatings = r, n
			now := time.Now()
			fetchedAt = &now
		}
	}

	now := time.Now()
	product := &model.Product{
		ID:              uuid.New().String(),
		Name:            s.sanitizer.Sanitize(input.Name),
		Description:     s.sanitizer.Sanitize(input.Description),
		Price:           input.Price,
		Stock:           input.Stock,
		Rating:          rating,
		NumRatings:      numRatings,
		Category:        s.sanitizer.Sanitize(input.Category),
		RatingFetchedAt: fetchedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	slog.Info("商品を登録しました",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)
	return product, nil
}

// UpdateProduct は商品の名前・説明・価格・カテゴリを更新する。
// 在庫と評価はこの操作では変更しない。
func (s *Service) UpdateProduct(ctx context.Context, productID string, input ProductInput) (*model.Product, error) {
	if productID == "" {
		return nil, model.NewInvalidRequestError("商品IDが空です")
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          productID,
		Name:        s.sanitizer.Sanitize(input.Name),
		Description: s.sanitizer.Sanitize(input.Description),
		Price:       input.Price,
		Category:    s.sanitizer.Sanitize(input.Category),
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, productID)
}

// GetProduct は指定IDの商品を返す。
// 商品が存在しない場合はNOT_FOUNDのAPIErrorを返す。
func (s *Service) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	return product, nil
}

// ListProducts は全商品を返す。
func (s *Service) ListProducts(ctx context.Context) ([]*model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*model.Product{}
	}
	return products, nil
}

// validateInput は商品入力を検証する。
func (s *Service) validateInput(input ProductInput) error {
	if input.Name == "" {
		return model.NewInvalidRequestError("商品名が空です")
	}
	if input.Price < 0 {
		return model.NewInvalidRequestError("価格は0以上を指定してください")
	}
	if input.Stock < 0 {
		return model.NewInvalidRequestError("在庫数は0以上を指定してください")
	}
	return nil
}
