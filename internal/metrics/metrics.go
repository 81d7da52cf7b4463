// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// バッチジョブやサービス層から利用する。
type MetricsCollector interface {
	RecordCheckoutSuccess()
	RecordCheckoutFailure(code string)
	RecordCheckoutLatency(duration time.Duration)
	RecordRatingFetchSuccess()
	RecordRatingFetchFailure()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	checkoutSuccess prometheus.Counter
	checkoutFail    *prometheus.CounterVec
	checkoutLatency prometheus.Histogram
	ratingSuccess   prometheus.Counter
	ratingFail      prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkoutSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_checkout_success_total",
			Help: "チェックアウト成功の合計数",
		}),
		checkoutFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_fail_total",
			Help: "エラーコード別のチェックアウト失敗数",
		}, []string{"code"}),
		checkoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_checkout_latency_seconds",
			Help:    "チェックアウトのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		ratingSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_rating_fetch_success_total",
			Help: "評価取得成功の合計数",
		}),
		ratingFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_rating_fetch_fail_total",
			Help: "評価取得失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.checkoutSuccess,
		c.checkoutFail,
		c.checkoutLatency,
		c.ratingSuccess,
		c.ratingFail,
		c.httpStatus,
	)

	return c
}

// RecordCheckoutSuccess はチェックアウト成功を記録する。
func (c *Collector) RecordCheckoutSuccess() {
	c.checkoutSuccess.Inc()
}

// RecordCheckoutFailure はチェックアウト失敗をエラーコード別に記録する。
func (c *Collector) RecordCheckoutFailure(code string) {
	c.checkoutFail.WithLabelValues(code).Inc()
}

// RecordCheckoutLatency はチェックアウトのレイテンシを記録する。
func (c *Collector) RecordCheckoutLatency(duration time.Duration) {
	c.checkoutLatency.Observe(duration.Seconds())
}

// RecordRatingFetchSuccess は評価取得成功を記録する。
func (c *Collector) RecordRatingFetchSuccess() {
	c.ratingSuccess.Inc()
}

// RecordRatingFetchFailure は評価取得失敗を記録する。
func (c *Collector) RecordRatingFetchFailure() {
	c.ratingFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
