package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/storefront/internal/checkout"
	"github.com/hitoshi/storefront/internal/model"
)

// CheckoutServiceInterface はチェックアウトハンドラーが必要とするサービスインターフェース。
type CheckoutServiceInterface interface {
	// Checkout は要求された明細の在庫減算を単一トランザクションで実行する。
	Checkout(ctx context.Context, userID string, items []model.CartItemInput) (*checkout.Result, error)
}

// CheckoutHandler はチェックアウトのHTTPハンドラー。
type CheckoutHandler struct {
	service CheckoutServiceInterface
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(service CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// checkoutRequest はチェックアウトリクエストのボディ。
type checkoutRequest struct {
	Items []model.CartItemInput `json:"items"`
}

// Checkout はチェックアウトを処理する。
// 全明細の在庫減算に成功した場合のみ200を返す。1件でも失敗した場合は
// 全体がロールバックされ、原因を示すエラーレスポンスを返す。
// 成功してもカート明細は消去しない。
// POST /api/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	result, err := h.service.Checkout(r.Context(), userID, req.Items)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
