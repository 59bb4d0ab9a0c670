// Package auth はアクセストークンの発行・検証と所有者チェックを提供する。
//
// 発行・検証・所有者チェックはいずれも入力と読み取り専用の署名鍵だけに依存する純粋関数であり、
// 車両ストアやセッション状態には一切触れない。
package auth

import "github.com/pkg/errors"

var (
	// ErrUnauthorized は資格情報がまったく提示されなかったことを表す（HTTP 401）。
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrForbidden は資格情報が不正・期限切れ、またはIdentityが要求対象と一致しないことを表す（HTTP 403）。
	ErrForbidden = errors.New("request forbidden")
	// ErrMissingSecret は署名鍵が設定されていないことを表す。起動時の致命的エラーとして扱う。
	ErrMissingSecret = errors.New("access token secret is not configured")
	// ErrReservedClaim はクレームに発行側が設定する予約フィールドが含まれることを表す。
	ErrReservedClaim = errors.New("claim contains a reserved field")
)
