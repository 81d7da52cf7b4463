package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/model"
)

// mockCatalogService はCatalogServiceInterfaceのモック。
type mockCatalogService struct {
	addProductFn    func(ctx context.Context, input catalog.ProductInput) (*model.Product, error)
	updateProductFn func(ctx context.Context, productID string, input catalog.ProductInput) (*model.Product, error)
	getProductFn    func(ctx context.Context, productID string) (*model.Product, error)
	listProductsFn  func(ctx context.Context) ([]*model.Product, error)
}

func (m *mockCatalogService) AddProduct(ctx context.Context, input catalog.ProductInput) (*model.Product, error) {
	return m.addProductFn(ctx, input)
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, productID string, input catalog.ProductInput) (*model.Product, error) {
	return m.updateProductFn(ctx, productID, input)
}

func (m *mockCatalogService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	return m.getProductFn(ctx, productID)
}

func (m *mockCatalogService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return m.listProductsFn(ctx)
}

// mockStockService はStockServiceInterfaceのモック。
type mockStockService struct {
	getStockFn func(ctx context.Context, productID string) (int, error)
	restockFn  func(ctx context.Context, productID string, quantity int) error
	deductFn   func(ctx context.Context, productID string, quantity int) error
}

func (m *mockStockService) GetStock(ctx context.Context, productID string) (int, error) {
	return m.getStockFn(ctx, productID)
}

func (m *mockStockService) Restock(ctx context.Context, productID string, quantity int) error {
	return m.restockFn(ctx, productID, quantity)
}

func (m *mockStockService) Deduct(ctx context.Context, productID string, quantity int) error {
	return m.deductFn(ctx, productID, quantity)
}

// withURLParam はchiのルートパラメータをリクエストに注入する。
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// 商品一覧がJSON配列で返ることを検証
func TestProductHandler_ListProducts(t *testing.T) {
	catalogSvc := &mockCatalogService{
		listProductsFn: func(ctx context.Context) ([]*model.Product, error) {
			return []*model.Product{
				{ID: "p1", Name: "商品1", Price: 19.99, Stock: 10},
				{ID: "p2", Name: "商品2", Price: 29.99, Stock: 5},
			}, nil
		},
	}
	h := NewProductHandler(catalogSvc, &mockStockService{})

	rec := httptest.NewRecorder()
	h.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp []productResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("got %d products, want 2", len(resp))
	}
}

// 商品詳細の取得を検証
func TestProductHandler_GetProduct(t *testing.T) {
	catalogSvc := &mockCatalogService{
		getProductFn: func(ctx context.Context, productID string) (*model.Product, error) {
			if productID != "p1" {
				t.Errorf("productID = %q, want p1", productID)
			}
			return &model.Product{ID: "p1", Name: "商品1", Rating: 4.5, NumRatings: 1234}, nil
		},
	}
	h := NewProductHandler(catalogSvc, &mockStockService{})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/p1", nil), "id", "p1")
	rec := httptest.NewRecorder()
	h.GetProduct(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp productResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Rating != 4.5 || resp.NumRatings != 1234 {
		t.Errorf("rating = %v/%d, want 4.5/1234", resp.Rating, resp.NumRatings)
	}
}

// 存在しない商品が404になることを検証
func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	catalogSvc := &mockCatalogService{
		getProductFn: func(ctx context.Context, productID string) (*model.Product, error) {
			return nil, model.NewProductNotFoundError(productID)
		},
	}
	h := NewProductHandler(catalogSvc, &mockStockService{})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()
	h.GetProduct(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// 商品登録が201を返すことを検証
func TestProductHandler_CreateProduct(t *testing.T) {
	catalogSvc := &mockCatalogService{
		addProductFn: func(ctx context.Context, input catalog.ProductInput) (*model.Product, error) {
			return &model.Product{ID: "p-new", Name: input.Name, Price: input.Price, Stock: input.Stock}, nil
		},
	}
	h := NewProductHandler(catalogSvc, &mockStockService{})

	body := `{"name":"新商品","description":"説明","price":9.99,"stock":100,"category":"books"}`
	rec := httptest.NewRecorder()
	h.CreateProduct(rec, authedRequest(http.MethodPost, "/api/products", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp productResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "p-new" {
		t.Errorf("id = %q, want p-new", resp.ID)
	}
}

// バリデーションエラーが400になることを検証
func TestProductHandler_CreateProduct_InvalidInput(t *testing.T) {
	catalogSvc := &mockCatalogService{
		addProductFn: func(ctx context.Context, input catalog.ProductInput) (*model.Product, error) {
			return nil, model.NewInvalidRequestError("商品名は必須です")
		},
	}
	h := NewProductHandler(catalogSvc, &mockStockService{})

	body := `{"name":"","price":9.99}`
	rec := httptest.NewRecorder()
	h.CreateProduct(rec, authedRequest(http.MethodPost, "/api/products", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// 商品更新を検証
func TestProductHandler_UpdateProduct(t *testing.T) {
	catalogSvc := &mockCatalogService{
		updateProductFn: func(ctx context.Context, productID string, input catalog.ProductInput) (*model.Product, error) {
			if productID != "p1" {
				t.Errorf("productID = %q, want p1", productID)
			}
			return &model.Product{ID: productID, Name: input.Name, Price: input.Price}, nil
		},
	}
	h := NewProductHandler(catalogSvc, &mockStockService{})

	body := `{"name":"改名後","price":14.99}`
	req := withURLParam(authedRequest(http.MethodPatch, "/api/products/p1", body), "id", "p1")
	rec := httptest.NewRecorder()
	h.UpdateProduct(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp productResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Name != "改名後" {
		t.Errorf("name = %q, want 改名後", resp.Name)
	}
}

// 在庫数の取得を検証
func TestProductHandler_GetStock(t *testing.T) {
	stockSvc := &mockStockService{
		getStockFn: func(ctx context.Context, productID string) (int, error) {
			return 42, nil
		},
	}
	h := NewProductHandler(&mockCatalogService{}, stockSvc)

	req := withURLParam(authedRequest(http.MethodGet, "/api/products/p1/stock", ""), "id", "p1")
	rec := httptest.NewRecorder()
	h.GetStock(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp stockResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ProductID != "p1" || resp.Stock != 42 {
		t.Errorf("response = %+v, want p1/42", resp)
	}
}

// 在庫追加後の在庫数が返ることを検証
func TestProductHandler_Restock(t *testing.T) {
	var gotQuantity int
	stockSvc := &mockStockService{
		restockFn: func(ctx context.Context, productID string, quantity int) error {
			gotQuantity = quantity
			return nil
		},
		getStockFn: func(ctx context.Context, productID string) (int, error) {
			return 50, nil
		},
	}
	h := NewProductHandler(&mockCatalogService{}, stockSvc)

	req := withURLParam(authedRequest(http.MethodPost, "/api/products/p1/restock", `{"quantity":10}`), "id", "p1")
	rec := httptest.NewRecorder()
	h.Restock(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotQuantity != 10 {
		t.Errorf("quantity = %d, want 10", gotQuantity)
	}

	var resp stockResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Stock != 50 {
		t.Errorf("stock = %d, want 50", resp.Stock)
	}
}

// 在庫不足の払い出しが409になることを検証
func TestProductHandler_Deduct_InsufficientStock(t *testing.T) {
	stockSvc := &mockStockService{
		deductFn: func(ctx context.Context, productID string, quantity int) error {
			return model.NewInsufficientStockError(productID)
		},
	}
	h := NewProductHandler(&mockCatalogService{}, stockSvc)

	req := withURLParam(authedRequest(http.MethodPost, "/api/products/p1/deduct", `{"quantity":999}`), "id", "p1")
	rec := httptest.NewRecorder()
	h.Deduct(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != model.ErrCodeInsufficientStock {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeInsufficientStock)
	}
}
