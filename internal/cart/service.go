// Package cart はカート管理のドメインロジックを提供する。
// カートの割り当て・明細の置き換え・明細の取得を扱う。
package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service はカート管理のサービス層。
type Service struct {
	cartRepo repository.CartRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(cartRepo repository.CartRepository) *Service {
	return &Service{cartRepo: cartRepo}
}

// GetOrCreateCart はユーザーの現在のカートIDを返す。
// カートが存在しない場合は新しい空のカートを作成する。同一ユーザーへの
// 同時呼び出しでも返されるカートIDは一致する（リポジトリ側の
// ユニーク制約で保証）。
func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", model.NewInvalidRequestError("ユーザーIDが空です")
	}

	cartID, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("カートの割り当てに失敗しました: %w", err)
	}
	return cartID, nil
}

// ReplaceItems はユーザーのカート明細を渡された集合で完全に置き換える。
// 商品IDが空、または数量が1未満の明細は黙って読み飛ばす（要求全体は
// 成功する）。読み飛ばしは互換性のため維持している挙動であり、検出
// できるように警告ログを残す。置き換え自体は単一トランザクションで
// 行われ、部分的な置き換えが観測されることはない。
func (s *Service) ReplaceItems(ctx context.Context, userID string, items []model.CartItemInput) error {
	cartID, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}

	valid := make([]model.CartItemInput, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			slog.Warn("不正なカート明細を読み飛ばしました",
				slog.String("user_id", userID),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
			)
			continue
		}
		valid = append(valid, item)
	}

	if err := s.cartRepo.ReplaceItems(ctx, cartID, valid); err != nil {
		return fmt.Errorf("カート明細の置き換えに失敗しました: %w", err)
	}

	slog.Info("カートを保存しました",
		slog.String("user_id", userID),
		slog.String("cart_id", cartID),
		slog.Int("item_count", len(valid)),
	)
	return nil
}

// ListItems はユーザーのカート明細を商品の表示情報付きで返す。
// カートが存在しない場合は空スライスを返す（エラーにはしない）。
func (s *Service) ListItems(ctx context.Context, userID string) ([]model.CartLine, error) {
	cart, err := s.cartRepo.FindCurrentByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カートの検索に失敗しました: %w", err)
	}
	if cart == nil {
		return []model.CartLine{}, nil
	}

	lines, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("カート明細の取得に失敗しました: %w", err)
	}
	return lines, nil
}
