package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, car, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidClaim      = "INVALID_CLAIM"
	ErrCodeInvalidPagination = "INVALID_PAGINATION"
	ErrCodeInvalidID         = "INVALID_ID"
	ErrCodeCarNotFound       = "CAR_NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("invalid request body: %s", reason),
		Category: "validation",
		Action:   "Send a JSON object as the request body.",
	}
}

// NewInvalidClaimError はログイン時のクレームに予約済みフィールドが含まれる場合のエラーを生成する。
func NewInvalidClaimError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidClaim,
		Message:  fmt.Sprintf("claim must not contain reserved field %q", field),
		Category: "auth",
		Action:   "Remove the reserved field from the login payload.",
	}
}

// NewInvalidPaginationError はページ指定が不正な場合のエラーを生成する。
func NewInvalidPaginationError(param string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPagination,
		Message:  fmt.Sprintf("invalid pagination parameter: %s", param),
		Category: "validation",
		Action:   "Use non-negative integers for page and filter.",
	}
}

// NewInvalidIDError は車両IDの形式が不正な場合のエラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("invalid car id: %s", id),
		Category: "validation",
		Action:   "Check the car id.",
	}
}

// NewCarNotFoundError は車両が見つからない場合のエラーを生成する。
func NewCarNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCarNotFound,
		Message:  fmt.Sprintf("car not found: %s", id),
		Category: "car",
		Action:   "Check the car id.",
	}
}

// NewInternalError は内部エラーの統一レスポンスを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "internal server error",
		Category: "system",
		Action:   "Please retry later.",
	}
}
