// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, menu, cart, payment, system
	Action   string // ユーザー向け対処方法

	// Cause は内部原因。ログにのみ出力し、レスポンスには含めない。
	Cause error
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は内部原因を返す。
func (e *APIError) Unwrap() error {
	return e.Cause
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeMenuItemNotFound = "MENU_ITEM_NOT_FOUND"
	ErrCodeCartItemNotFound = "CART_ITEM_NOT_FOUND"
	ErrCodePaymentNotFound  = "PAYMENT_NOT_FOUND"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodePaymentProvider  = "PAYMENT_PROVIDER_ERROR"
	ErrCodeCartNotCleared   = "CART_NOT_CLEARED"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidPrice     = "INVALID_PRICE"
	ErrCodeInvalidID        = "INVALID_ID"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// NewUnauthenticatedError は認証失敗エラーを生成する。
// トークンの欠落・改ざん・期限切れを区別せず同じメッセージを返す。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Unauthorized Access",
		Category: "auth",
		Action:   "ログインし直してトークンを再発行してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Forbidden Access",
		Category: "auth",
		Action:   "この操作を行う権限がありません。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewMenuItemNotFoundError はメニュー品目が見つからない場合のエラーを生成する。
func NewMenuItemNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeMenuItemNotFound,
		Message:  "Menu item not found",
		Category: "menu",
		Action:   "メニューIDを確認してください。",
	}
}

// NewCartItemNotFoundError はカート行が見つからない場合のエラーを生成する。
func NewCartItemNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCartItemNotFound,
		Message:  "Item not found",
		Category: "cart",
		Action:   "カートを再読み込みしてください。",
	}
}

// NewPaymentNotFoundError は決済記録が見つからない場合のエラーを生成する。
func NewPaymentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePaymentNotFound,
		Message:  "Payment not found",
		Category: "payment",
		Action:   "決済IDを確認してください。",
	}
}

// NewPersistenceError はストアの利用不可・書き込み失敗エラーを生成する。
func NewPersistenceError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodePersistence,
		Message:  "An error occurred",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
		Cause:    cause,
	}
}

// NewPaymentProviderError は決済プロバイダーが拒否または到達不能の場合のエラーを生成する。
func NewPaymentProviderError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodePaymentProvider,
		Message:  "Payment provider rejected the request",
		Category: "payment",
		Action:   "金額を確認し、しばらく待ってから再度お試しください。",
		Cause:    cause,
	}
}

// NewInvalidRequestError はリクエストボディが不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidPriceError は金額が正の10進数でない場合のエラーを生成する。
func NewInvalidPriceError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPrice,
		Message:  "Price must be a positive decimal",
		Category: "validation",
		Action:   "priceには正の数値を指定してください。",
	}
}

// NewInvalidIDError はIDの形式が不正な場合のエラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("Invalid id: %s", id),
		Category: "validation",
		Action:   "IDを確認してください。",
	}
}

// NewCartNotClearedError は決済記録の保存後にカートの削除だけが失敗した場合のエラーを生成する。
// 決済は記録済みのため、クライアントは再決済せずカート削除のみを再試行する。
func NewCartNotClearedError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeCartNotCleared,
		Message:  "Payment recorded, cart not cleared",
		Category: "payment",
		Action:   "決済は完了しています。カートの削除のみを再試行してください。",
		Cause:    cause,
	}
}
