// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sabbirzzaman/go-autocar-server/internal/auth"
	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// TokenIssuer はログインハンドラーが必要とするトークン発行インターフェース。
// auth.Issuerが実装する。
type TokenIssuer interface {
	Issue(claim model.Identity) (string, error)
}

// TokenIssueRecorder はトークン発行の記録先。metrics.Collectorが実装する。
type TokenIssueRecorder interface {
	RecordTokenIssued()
}

// AuthHandler はアクセストークン発行のHTTPハンドラー。
type AuthHandler struct {
	issuer   TokenIssuer
	recorder TokenIssueRecorder
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnilでもよい。
func NewAuthHandler(issuer TokenIssuer, recorder TokenIssueRecorder) *AuthHandler {
	return &AuthHandler{
		issuer:   issuer,
		recorder: recorder,
	}
}

// loginResponse はログインのレスポンス。
type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login はリクエストボディのJSONオブジェクトをそのままクレームとしてアクセストークンを発行する。
// 資格情報の照合は行わない。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := decodeJSONObject(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	claim := model.Identity(body)
	token, err := h.issuer.Issue(claim)
	if err != nil {
		if errors.Is(err, auth.ErrReservedClaim) {
			field, _ := auth.ReservedClaim(claim)
			handleServiceError(w, r, model.NewInvalidClaimError(field))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordTokenIssued()
	}
	slog.Info("access token issued", slog.Bool("has_email", hasEmail(claim)))

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func hasEmail(claim model.Identity) bool {
	email, ok := claim.Email()
	return ok && email != ""
}
