// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, cart, stock, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeConnectionFailure  = "CONNECTION_FAILURE"
	ErrCodeTransactionFailed  = "TRANSACTION_FAILED"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: "stock",
		Action:   "商品IDを確認してください。",
	}
}

// NewInsufficientStockError は在庫不足エラーを生成する。
// どの商品で不足したかを必ず含める。
func NewInsufficientStockError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientStock,
		Message:  fmt.Sprintf("商品の在庫が不足しています: %s", productID),
		Category: "stock",
		Action:   "数量を減らすか、入荷までお待ちください。",
	}
}

// NewInvalidRequestError は不正リクエストエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewConnectionFailureError はデータベース接続失敗エラーを生成する。
func NewConnectionFailureError() *APIError {
	return &APIError{
		Code:     ErrCodeConnectionFailure,
		Message:  "データベースに接続できませんでした。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTransactionFailedError はトランザクション失敗エラーを生成する。
// タイムアウト・デッドロック等の汎用的な中断を表す。全体がロールバック
// 済みのため、呼び出し側は操作全体を安全に再試行できる。
func NewTransactionFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeTransactionFailed,
		Message:  "処理が中断されました。変更は反映されていません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスの存在有無は区別せず同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。未登録の場合は登録してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
