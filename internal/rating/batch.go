package rating

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/storefront/internal/repository"
)

// Fetcher は評価情報取得のインターフェース。
// テスト時にモックに差し替え可能。
type Fetcher interface {
	FetchRating(ctx context.Context, query string) (float64, int, error)
}

// RatingRecorder はバッチジョブのメトリクス記録インターフェース。
type RatingRecorder interface {
	RecordRatingFetchSuccess()
	RecordRatingFetchFailure()
}

// BatchConfig はバッチジョブの設定パラメータ。
// 環境変数から設定可能。
type BatchConfig struct {
	// BatchInterval はバッチジョブの実行間隔（デフォルト: 10分）。
	BatchInterval time.Duration
	// APIInterval はAPI呼び出しの最低間隔（デフォルト: 5秒）。
	APIInterval time.Duration
	// MaxCallsPerCycle は1サイクルあたりの最大API呼び出し回数（デフォルト: 100）。
	MaxCallsPerCycle int
	// RatingTTL は評価の再取得間隔（デフォルト: 24時間）。
	RatingTTL time.Duration
}

// DefaultBatchConfig はデフォルトのバッチジョブ設定を返す。
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		BatchInterval:    10 * time.Minute,
		APIInterval:      5 * time.Second,
		MaxCallsPerCycle: 100,
		RatingTTL:        24 * time.Hour,
	}
}

// BatchJob は商品評価の定期再取得ジョブ。
// rating_fetched_atがNULLまたはTTLを経過した商品を対象に評価検索APIを
// 呼び出して評価を更新する。1商品につき1回のAPI呼び出しが必要なため、
// 呼び出し回数はMaxCallsPerCycleで制限する。
type BatchJob struct {
	productRepo       repository.ProductRepository
	client            Fetcher
	logger            *slog.Logger
	metrics           RatingRecorder
	config            BatchConfig
	consecutiveErrors int
	backoffUntil      time.Time
}

// NewBatchJob はBatchJobの新しいインスタンスを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewBatchJob(
	productRepo repository.ProductRepository,
	client Fetcher,
	logger *slog.Logger,
	metrics RatingRecorder,
	config BatchConfig,
) *BatchJob {
	return &BatchJob{
		productRepo: productRepo,
		client:      client,
		logger:      logger,
		metrics:     metrics,
		config:      config,
	}
}

// Start はバッチジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (b *BatchJob) Start(ctx context.Context) {
	ticker := time.NewTicker(b.config.BatchInterval)
	defer ticker.Stop()

	b.logger.Info("評価取得バッチジョブを開始しました",
		slog.Duration("batch_interval", b.config.BatchInterval),
		slog.Duration("api_interval", b.config.APIInterval),
		slog.Int("max_calls_per_cycle", b.config.MaxCallsPerCycle),
	)

	// 起動直後に1回実行
	if err := b.RunOnce(ctx); err != nil {
		b.logger.Error("評価取得バッチサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("評価取得バッチジョブを停止しました")
			return
		case <-ticker.C:
			if err := b.RunOnce(ctx); err != nil {
				b.logger.Error("評価取得バッチサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回のバッチサイクルを実行する。
// 再取得対象の商品を取得し、1商品ずつAPIを呼び出して評価を更新する。
func (b *BatchJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	// バックオフ中の場合はスキップ
	if !b.backoffUntil.IsZero() && time.Now().Before(b.backoffUntil) {
		b.logger.Info("評価取得バッチジョブはバックオフ中のためスキップします",
			slog.Time("backoff_until", b.backoffUntil),
		)
		return nil
	}

	products, err := b.productRepo.ListNeedingRatingRefresh(ctx, b.config.RatingTTL, b.config.MaxCallsPerCycle)
	if err != nil {
		return fmt.Errorf("評価再取得対象商品の取得に失敗しました: %w", err)
	}

	if len(products) == 0 {
		b.logger.Info("評価再取得対象の商品はありません")
		return nil
	}

	b.logger.Info("評価取得バッチサイクルを開始します",
		slog.Int("target_products", len(products)),
	)

	var apiCallCount int
	var updatedCount int
	var hadError bool

	for _, product := range products {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if apiCallCount >= b.config.MaxCallsPerCycle {
			b.logger.Info("1サイクルあたりの最大API呼び出し回数に達しました",
				slog.Int("api_call_count", apiCallCount),
				slog.Int("max_calls_per_cycle", b.config.MaxCallsPerCycle),
			)
			break
		}

		// API呼び出しインターバル（初回は待たない）
		if apiCallCount > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.config.APIInterval):
			}
		}

		apiCallCount++

		stars, numRatings, err := b.client.FetchRating(ctx, product.Name)
		if err != nil {
			b.logger.Error("評価検索APIの呼び出しに失敗しました",
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()),
			)
			if b.metrics != nil {
				b.metrics.RecordRatingFetchFailure()
			}
			hadError = true
			b.consecutiveErrors++
			// バックオフ判定
			backoff := b.calculateErrorBackoff(b.consecutiveErrors)
			if backoff > 0 {
				b.backoffUntil = time.Now().Add(backoff)
				b.logger.Warn("連続エラーによりバックオフを適用します",
					slog.Int("consecutive_errors", b.consecutiveErrors),
					slog.Duration("backoff_duration", backoff),
				)
				break
			}
			continue // この商品はスキップし次へ（前回値維持）
		}

		if b.metrics != nil {
			b.metrics.RecordRatingFetchSuccess()
		}

		if err := b.productRepo.UpdateRating(ctx, product.ID, stars, numRatings, time.Now()); err != nil {
			b.logger.Error("商品評価の更新に失敗しました",
				slog.String("product_id", product.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		updatedCount++
	}

	// エラーがなければ連続エラーカウントをリセット
	if !hadError {
		b.consecutiveErrors = 0
		b.backoffUntil = time.Time{}
	}

	duration := time.Since(start)
	b.logger.Info("評価取得バッチサイクルが完了しました",
		slog.Int("api_call_count", apiCallCount),
		slog.Int("updated_products", updatedCount),
		slog.Int("target_products", len(products)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// calculateErrorBackoff は連続エラー回数に基づくバックオフ時間を計算する。
// 3回連続: 30分、5回連続: 1時間、10回連続: 6時間。
func (b *BatchJob) calculateErrorBackoff(consecutiveErrors int) time.Duration {
	switch {
	case consecutiveErrors >= 10:
		return 6 * time.Hour
	case consecutiveErrors >= 5:
		return 1 * time.Hour
	case consecutiveErrors >= 3:
		return 30 * time.Minute
	default:
		return 0
	}
}

// compile-time interface check
var _ Fetcher = (*Client)(nil)
