package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
)

// mockCartRepo はCartRepositoryのモック。
type mockCartRepo struct {
	deleteStaleCartsFn func(ctx context.Context, retentionDays int) (int64, error)
}

func (m *mockCartRepo) GetOrCreate(ctx context.Context, userID string) (string, error) {
	return "", nil
}

func (m *mockCartRepo) FindCurrentByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	return nil, nil
}

func (m *mockCartRepo) ReplaceItems(ctx context.Context, cartID string, items []model.CartItemInput) error {
	return nil
}

func (m *mockCartRepo) ListItems(ctx context.Context, cartID string) ([]model.CartLine, error) {
	return nil, nil
}

func (m *mockCartRepo) DeleteStaleCarts(ctx context.Context, retentionDays int) (int64, error) {
	return m.deleteStaleCartsFn(ctx, retentionDays)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// Runが設定された保持日数でリポジトリを呼ぶことを検証
func TestCleanupJob_Run(t *testing.T) {
	var gotDays int
	repo := &mockCartRepo{
		deleteStaleCartsFn: func(ctx context.Context, retentionDays int) (int64, error) {
			gotDays = retentionDays
			return 7, nil
		},
	}
	job := NewCleanupJob(repo, testLogger())
	job.RetentionDays = 30

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDays != 30 {
		t.Errorf("retentionDays = %d, want 30", gotDays)
	}
}

// デフォルトの保持日数が90日であることを検証
func TestNewCleanupJob_DefaultRetention(t *testing.T) {
	job := NewCleanupJob(&mockCartRepo{}, testLogger())
	if job.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want 90", job.RetentionDays)
	}
}

// 削除対象がない場合でもエラーにならないことを検証
func TestCleanupJob_Run_NoTargets(t *testing.T) {
	repo := &mockCartRepo{
		deleteStaleCartsFn: func(ctx context.Context, retentionDays int) (int64, error) {
			return 0, nil
		},
	}
	job := NewCleanupJob(repo, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// リポジトリのエラーが伝播することを検証
func TestCleanupJob_Run_Error(t *testing.T) {
	repo := &mockCartRepo{
		deleteStaleCartsFn: func(ctx context.Context, retentionDays int) (int64, error) {
			return 0, fmt.Errorf("db down")
		},
	}
	job := NewCleanupJob(repo, testLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}
