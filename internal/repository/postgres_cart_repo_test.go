package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresCartRepoはCartRepositoryインターフェースを満たすことを検証
func TestPostgresCartRepo_ImplementsInterface(t *testing.T) {
	var _ CartRepository = (*PostgresCartRepo)(nil)
}

// NewPostgresCartRepoが正しく初期化されることを検証
func TestNewPostgresCartRepo_Initializes(t *testing.T) {
	repo := NewPostgresCartRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Cartモデルのフィールドが正しく構築されることを検証
func TestPostgresCartRepo_CartModel_Fields(t *testing.T) {
	now := time.Now()
	cart := &model.Cart{
		ID:        "cart-id-1",
		UserID:    "user-id-1",
		Current:   true,
		CreatedAt: now,
	}

	if cart.ID != "cart-id-1" {
		t.Errorf("cart.ID = %q, want %q", cart.ID, "cart-id-1")
	}
	if !cart.Current {
		t.Error("cart.Current should be true")
	}
}

// CartLineが商品の表示情報を持つことを検証
func TestPostgresCartRepo_CartLine_Fields(t *testing.T) {
	line := model.CartLine{
		ProductID: "product-id-1",
		Quantity:  3,
		Price:     19.99,
		Title:     "テスト商品",
	}

	if line.ProductID != "product-id-1" {
		t.Errorf("line.ProductID = %q, want %q", line.ProductID, "product-id-1")
	}
	if line.Quantity != 3 {
		t.Errorf("line.Quantity = %d, want %d", line.Quantity, 3)
	}
	if line.Price != 19.99 {
		t.Errorf("line.Price = %v, want %v", line.Price, 19.99)
	}
}
