// Package stock は在庫台帳に対する管理者操作を提供する。
// 入荷（加算）と払い出し（減算）はどちらも台帳のアトミックな
// 在庫調整として表現される。
package stock

import (
	"context"
	"log/slog"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service は在庫管理のサービス層。
type Service struct {
	ledger repository.StockLedger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(ledger repository.StockLedger) *Service {
	return &Service{ledger: ledger}
}

// GetStock は指定商品の在庫数を返す。
// 商品が存在しない場合はNOT_FOUNDのAPIErrorを返す。
func (s *Service) GetStock(ctx context.Context, productID string) (int, error) {
	return s.ledger.GetStock(ctx, productID)
}

// Restock は指定商品の在庫をquantityだけ増やす（管理者の入荷操作）。
func (s *Service) Restock(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return model.NewInvalidRequestError("入荷数量は1以上を指定してください")
	}

	if err := s.ledger.AdjustStock(ctx, productID, quantity); err != nil {
		return err
	}

	slog.Info("在庫を追加しました",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return nil
}

// Deduct は指定商品の在庫をquantityだけ減らす（管理者の払い出し操作）。
// 在庫が不足する場合はINSUFFICIENT_STOCKのAPIErrorを返し、在庫は
// 変更されない。
func (s *Service) Deduct(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return model.NewInvalidRequestError("払い出し数量は1以上を指定してください")
	}

	if err := s.ledger.AdjustStock(ctx, productID, -quantity); err != nil {
		return err
	}

	slog.Info("在庫を払い出しました",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return nil
}
