package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sabbirzzaman/go-autocar-server/internal/auth"
	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// 認証ゲートが返すメッセージ。どの項目が不一致だったか等の詳細は含めない。
const (
	MessageUnauthorized = "unauthorized access"
	MessageForbidden    = "request forbidden"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// MessageResponseBody は認証ゲートのエラーレスポンス。
type MessageResponseBody struct {
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// WriteAuthError は認証ゲートのエラーを書き込む。
// auth.ErrUnauthorizedは401、それ以外はすべて403として扱う。
func WriteAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrUnauthorized) {
		writeMessage(w, http.StatusUnauthorized, MessageUnauthorized)
		return
	}
	writeMessage(w, http.StatusForbidden, MessageForbidden)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(MessageResponseBody{Message: message})
}
