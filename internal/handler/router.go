package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// Prometheusスクレイプ用ハンドラー（nilの場合は/metricsを公開しない）
	MetricsHandler http.Handler

	// HTTPステータスコードのメトリクス記録（nil許容）
	StatusRecorder middleware.StatusRecorder

	// 認証
	AccountService AccountServiceInterface
	AuthConfig     AuthHandlerConfig

	// カート
	CartService CartServiceInterface

	// チェックアウト
	CheckoutService CheckoutServiceInterface

	// 商品カタログ・在庫
	CatalogService CatalogServiceInterface
	StockService   StockServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → CORSMiddleware
//	→ SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 登録・ログインと商品閲覧はセッションミドルウェアの外に配置する。
// 認証の有無でミドルウェアが異なるパス（/auth/*、/api/products*）が
// あるため、サブルーターのマウントではなくメソッド単位で登録する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default(), deps.StatusRecorder))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AccountService, deps.AuthConfig)
	cartHandler := NewCartHandler(deps.CartService)
	checkoutHandler := NewCheckoutHandler(deps.CheckoutService)
	productHandler := NewProductHandler(deps.CatalogService, deps.StockService)

	// --- 認証不要のルート ---

	// ヘルスチェック（DB疎通を確認する）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/logout", authHandler.Logout)

	// 商品閲覧（未ログインでも可能）
	r.Get("/api/products", productHandler.ListProducts)
	r.Get("/api/products/{id}", productHandler.GetProduct)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/auth/me", authHandler.Me)

		// カート管理
		r.Get("/api/cart", cartHandler.GetCart)
		r.Put("/api/cart", cartHandler.SaveCart)

		// チェックアウト（専用レート制限を追加）
		r.With(deps.RateLimiter.CheckoutMiddleware()).Post("/api/checkout", checkoutHandler.Checkout)

		// 商品カタログ・在庫管理
		r.Post("/api/products", productHandler.CreateProduct)
		r.Patch("/api/products/{id}", productHandler.UpdateProduct)
		r.Get("/api/products/{id}/stock", productHandler.GetStock)
		r.Post("/api/products/{id}/restock", productHandler.Restock)
		r.Post("/api/products/{id}/deduct", productHandler.Deduct)
	})

	return r
}
