// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sabbirzzaman/go-autocar-server/internal/auth"
	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// identityContextKey はリクエストコンテキストに検証済みIdentityを格納するためのキー。
	identityContextKey = contextKey("identity")
	// authorizedEmailContextKey は所有者チェックを通過したメールアドレスを格納するためのキー。
	authorizedEmailContextKey = contextKey("authorized_email")
)

// TokenVerifier はAuthorizationヘッダーの検証に必要なインターフェース。
// auth.Verifierが実装する。
type TokenVerifier interface {
	VerifyHeader(header string) (model.Identity, error)
}

// AuthObserver は認証失敗の記録先。metrics.Collectorが実装する。
type AuthObserver interface {
	RecordAuthFailure(reason string)
}

// 認証失敗の理由ラベル
const (
	AuthFailureMissingCredential = "missing_credential"
	AuthFailureInvalidCredential = "invalid_credential"
	AuthFailureIdentityMismatch  = "identity_mismatch"
)

// NewBearerAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// ヘッダーがない場合は401、トークンが不正・期限切れの場合は403を返し、後続のハンドラーは実行しない。
// 検証に成功した場合はIdentityをリクエストコンテキストに注入する。
// observerはnilでもよい。
func NewBearerAuthMiddleware(verifier TokenVerifier, observer AuthObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.VerifyHeader(r.Header.Get("Authorization"))
			if err != nil {
				reason := AuthFailureInvalidCredential
				if errors.Is(err, auth.ErrUnauthorized) {
					reason = AuthFailureMissingCredential
				}
				recordAuthFailure(observer, reason)
				slog.Warn("access token rejected",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path),
				)
				WriteAuthError(w, err)
				return
			}

			if email, ok := identity.Email(); ok {
				annotateRequestLog(r.Context(), email)
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOwnershipMiddleware は検証済みIdentityのメールアドレスと
// クエリパラメータqueryParamの値が一致しない場合に403を返すミドルウェアを返す。
// NewBearerAuthMiddlewareの後に配置すること。
// 一致した場合はそのメールアドレスをコンテキストに注入する。
func NewOwnershipMiddleware(queryParam string, observer AuthObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				recordAuthFailure(observer, AuthFailureMissingCredential)
				WriteAuthError(w, auth.ErrUnauthorized)
				return
			}

			requested := r.URL.Query().Get(queryParam)
			if err := auth.Authorize(identity, requested); err != nil {
				recordAuthFailure(observer, AuthFailureIdentityMismatch)
				slog.Warn("identity does not own requested resource",
					slog.String("reason", AuthFailureIdentityMismatch),
					slog.String("path", r.URL.Path),
				)
				WriteAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), authorizedEmailContextKey, requested)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから検証済みIdentityを取得する。
// Bearer認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok && identity != nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// AuthorizedEmailFromContext は所有者チェックを通過したメールアドレスを取得する。
func AuthorizedEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(authorizedEmailContextKey).(string)
	return email, ok
}

// ContextWithAuthorizedEmail はコンテキストに所有者チェック済みのメールアドレスを注入する。
func ContextWithAuthorizedEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, authorizedEmailContextKey, email)
}

func recordAuthFailure(observer AuthObserver, reason string) {
	if observer != nil {
		observer.RecordAuthFailure(reason)
	}
}
