package auth

import "github.com/sabbirzzaman/go-autocar-server/internal/model"

// Authorize は検証済みIdentityのメールアドレスと要求対象のメールアドレスが
// 完全一致（大文字小文字を区別）する場合のみ許可する。
// Identityのemailが文字列でない、または存在しない場合は常にErrForbiddenを返す。
func Authorize(identity model.Identity, requestedEmail string) error {
	email, ok := identity.Email()
	if !ok || email != requestedEmail {
		return ErrForbidden
	}
	return nil
}
