package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
)

// mockLedger はStockLedgerのモック。
type mockLedger struct {
	getStockFn     func(ctx context.Context, productID string) (int, error)
	adjustStockFn  func(ctx context.Context, productID string, delta int) error
	decrementAllFn func(ctx context.Context, items []model.CartItemInput) error
}

func (m *mockLedger) GetStock(ctx context.Context, productID string) (int, error) {
	return m.getStockFn(ctx, productID)
}

func (m *mockLedger) AdjustStock(ctx context.Context, productID string, delta int) error {
	return m.adjustStockFn(ctx, productID, delta)
}

func (m *mockLedger) DecrementAll(ctx context.Context, items []model.CartItemInput) error {
	return m.decrementAllFn(ctx, items)
}

// Restockが正のdeltaで台帳を呼ぶことを検証
func TestService_Restock(t *testing.T) {
	var gotDelta int
	ledger := &mockLedger{
		adjustStockFn: func(ctx context.Context, productID string, delta int) error {
			gotDelta = delta
			return nil
		},
	}
	svc := NewService(ledger)

	if err := svc.Restock(context.Background(), "p1", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDelta != 10 {
		t.Errorf("delta = %d, want 10", gotDelta)
	}
}

// Deductが負のdeltaで台帳を呼ぶことを検証
func TestService_Deduct(t *testing.T) {
	var gotDelta int
	ledger := &mockLedger{
		adjustStockFn: func(ctx context.Context, productID string, delta int) error {
			gotDelta = delta
			return nil
		},
	}
	svc := NewService(ledger)

	if err := svc.Deduct(context.Background(), "p1", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDelta != -4 {
		t.Errorf("delta = %d, want -4", gotDelta)
	}
}

// 数量が1未満の場合にINVALID_REQUESTを返し台帳を呼ばないことを検証
func TestService_AdjustQuantityValidation(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{"ゼロ", 0},
		{"負数", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			ledger := &mockLedger{
				adjustStockFn: func(ctx context.Context, productID string, delta int) error {
					called = true
					return nil
				},
			}
			svc := NewService(ledger)

			for _, op := range []func(context.Context, string, int) error{svc.Restock, svc.Deduct} {
				err := op(context.Background(), "p1", tt.quantity)
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %v", err)
				}
				if apiErr.Code != model.ErrCodeInvalidRequest {
					t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
				}
			}
			if called {
				t.Error("ledger should not be called for invalid quantity")
			}
		})
	}
}

// 台帳のエラーがそのまま透過されることを検証
func TestService_Deduct_InsufficientStock(t *testing.T) {
	ledger := &mockLedger{
		adjustStockFn: func(ctx context.Context, productID string, delta int) error {
			return model.NewInsufficientStockError(productID)
		},
	}
	svc := NewService(ledger)

	err := svc.Deduct(context.Background(), "p1", 100)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInsufficientStock {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeInsufficientStock)
	}
}

// GetStockが台帳の値をそのまま返すことを検証
func TestService_GetStock(t *testing.T) {
	ledger := &mockLedger{
		getStockFn: func(ctx context.Context, productID string) (int, error) {
			return 42, nil
		},
	}
	svc := NewService(ledger)

	stock, err := svc.GetStock(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stock != 42 {
		t.Errorf("stock = %d, want 42", stock)
	}
}
