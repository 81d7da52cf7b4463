// Package checkout はチェックアウトのドメインロジックを提供する。
// カートの明細を在庫台帳への単一の全か無かのトランザクションに変換する。
package checkout

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// MetricsRecorder はチェックアウトのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordCheckoutSuccess()
	RecordCheckoutFailure(code string)
	RecordCheckoutLatency(duration time.Duration)
}

// Result はチェックアウトの成功結果を表す。
// 失敗はAPIErrorとして返され、呼び出し側（HTTP層）が構造化
// レスポンスに変換する。
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service はチェックアウトのサービス層。
// 在庫減算の全か無かの性質はStockLedger.DecrementAllの単一
// トランザクションに依存する。手動で後からROLLBACK文を発行する
// 方式は他セッションが途中状態を観測し得るため採用しない。
type Service struct {
	ledger  repository.StockLedger
	metrics MetricsRecorder
	timeout time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewService(ledger repository.StockLedger, metrics MetricsRecorder, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		ledger:  ledger,
		metrics: metrics,
		timeout: timeout,
	}
}

// Checkout は要求された明細の在庫減算を単一トランザクションで実行する。
//
// 1. 全明細を検証する。商品IDが空または数量が1未満の明細が1つでも
//    あればINVALID_REQUESTで中断する（副作用なし）。
// 2. 全明細の減算を1つのトランザクションで適用する。いずれかが
//    NOT_FOUNDまたはINSUFFICIENT_STOCKなら全体がロールバックされ、
//    どの商品が原因かを含むAPIErrorを返す。
// 3. 全件成功した場合のみコミットし、成功結果を返す。
//
// トランザクションはタイムアウトで打ち切られ、打ち切りは
// TRANSACTION_FAILEDとして報告される。全か無かのためクライアントは
// チェックアウト全体を安全に再試行できる。
// 成功してもカート明細は消去しない（在庫のみを減算する）。
func (s *Service) Checkout(ctx context.Context, userID string, items []model.CartItemInput) (*Result, error) {
	start := time.Now()

	if err := validateItems(items); err != nil {
		s.recordFailure(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ledger.DecrementAll(ctx, items); err != nil {
		err = s.classifyError(err)
		s.recordFailure(err)
		slog.Warn("チェックアウトに失敗しました",
			slog.String("user_id", userID),
			slog.Int("item_count", len(items)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCheckoutSuccess()
		s.metrics.RecordCheckoutLatency(time.Since(start))
	}

	slog.Info("チェックアウトが完了しました",
		slog.String("user_id", userID),
		slog.Int("item_count", len(items)),
	)

	return &Result{
		Success: true,
		Message: "チェックアウトが完了しました。",
	}, nil
}

// validateItems は全明細を事前検証する。
// 1件でも不正があれば副作用なしで中断するため、減算開始前に行う。
func validateItems(items []model.CartItemInput) error {
	if len(items) == 0 {
		return model.NewInvalidRequestError("明細が空です")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return model.NewInvalidRequestError("商品IDが空の明細があります")
		}
		if item.Quantity < 1 {
			return model.NewInvalidRequestError(
				fmt.Sprintf("数量が不正な明細があります (product_id=%s)", item.ProductID))
		}
	}
	return nil
}

// classifyError は台帳から返されたエラーを呼び出し側向けに分類する。
// 業務上の結果（NOT_FOUND / INSUFFICIENT_STOCK）はそのまま通し、
// タイムアウトはTRANSACTION_FAILED、接続断はCONNECTION_FAILUREに
// 変換する。いずれの場合もロールバック済みである。
func (s *Service) classifyError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return model.NewTransactionFailedError()
	}
	if errors.Is(err, driver.ErrBadConn) {
		return model.NewConnectionFailureError()
	}
	return fmt.Errorf("チェックアウトのトランザクションに失敗しました: %w", err)
}

// recordFailure は失敗メトリクスを記録する。
func (s *Service) recordFailure(err error) {
	if s.metrics == nil {
		return
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		s.metrics.RecordCheckoutFailure(apiErr.Code)
		return
	}
	s.metrics.RecordCheckoutFailure("INTERNAL")
}
