package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/model"
)

// CatalogServiceInterface は商品ハンドラーが必要とするカタログサービスインターフェース。
type CatalogServiceInterface interface {
	AddProduct(ctx context.Context, input catalog.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID string, input catalog.ProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
}

// StockServiceInterface は商品ハンドラーが必要とする在庫サービスインターフェース。
type StockServiceInterface interface {
	GetStock(ctx context.Context, productID string) (int, error)
	Restock(ctx context.Context, productID string, quantity int) error
	Deduct(ctx context.Context, productID string, quantity int) error
}

// ProductHandler は商品カタログと在庫管理のHTTPハンドラー。
type ProductHandler struct {
	catalogService CatalogServiceInterface
	stockService   StockServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(catalogService CatalogServiceInterface, stockService StockServiceInterface) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		stockService:   stockService,
	}
}

// stockAdjustRequest は在庫調整リクエストのボディ。
type stockAdjustRequest struct {
	Quantity int `json:"quantity"`
}

// stockResponse は在庫数のAPIレスポンス。
type stockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Stock       int        `json:"stock"`
	Rating      float64    `json:"rating"`
	NumRatings  int        `json:"num_ratings"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListProducts は全商品を返す。
// GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]productResponse, len(products))
	for i, p := range products {
		results[i] = toProductResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GetProduct は商品詳細を取得する。
// GET /api/products/:id
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductResponse(product))
}

// CreateProduct は新しい商品をカタログに登録する。
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	product, err := h.catalogService.AddProduct(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toProductResponse(product))
}

// UpdateProduct は商品の名前・説明・価格・カテゴリを更新する。
// PATCH /api/products/:id
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductResponse(product))
}

// GetStock は商品の在庫数を返す。
// GET /api/products/:id/stock
func (h *ProductHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	stock, err := h.stockService.GetStock(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stockResponse{ProductID: productID, Stock: stock})
}

// Restock は商品の在庫を追加する。
// POST /api/products/:id/restock
func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.stockService.Restock)
}

// Deduct は商品の在庫を払い出す。
// POST /api/products/:id/deduct
func (h *ProductHandler) Deduct(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.stockService.Deduct)
}

// adjustStock は在庫調整リクエストの共通処理。
// 調整後の在庫数を返す。
func (h *ProductHandler) adjustStock(w http.ResponseWriter, r *http.Request, adjust func(ctx context.Context, productID string, quantity int) error) {
	productID := chi.URLParam(r, "id")

	var req stockAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := adjust(r.Context(), productID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	stock, err := h.stockService.GetStock(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stockResponse{ProductID: productID, Stock: stock})
}

// toProductResponse はmodel.ProductからAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Rating:      p.Rating,
		NumRatings:  p.NumRatings,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
