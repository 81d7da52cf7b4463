// Package cleanup は古いカートの自動削除ジョブを提供する。
// 現在のカートでなくなってから保持期間（デフォルト90日）を超過した
// カートを日次バッチで削除する。明細はCASCADE削除で自動的に処理される。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/storefront/internal/repository"
)

// CleanupJob は保持期間を超過したカートの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	cartRepo      repository.CartRepository
	logger        *slog.Logger
	RetentionDays int // カートの保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は90日。
func NewCleanupJob(cartRepo repository.CartRepository, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		cartRepo:      cartRepo,
		logger:        logger,
		RetentionDays: 90,
	}
}

// Run は保持期間を超過した非カレントのカートを削除する。
// 現在のカートは保持期間に関わらず削除しない。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.cartRepo.DeleteStaleCarts(ctx, j.RetentionDays)
	if err != nil {
		j.logger.Error("カートクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("カートクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("カートクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
