package model

// IdentityEmailKey はIdentityのうち所有者判定に使うキー。
const IdentityEmailKey = "email"

// Identity はログイン時に呼び出し元が提示したクレームを表す。
// 形は検証せず、アクセストークンにそのまま埋め込まれる。
// サーバー側には保存されず、検証後はリクエストスコープでのみ参照される。
type Identity map[string]any

// Email はIdentityのメールアドレスを返す。
// 未設定または文字列でない場合はokがfalseになる。
func (i Identity) Email() (email string, ok bool) {
	email, ok = i[IdentityEmailKey].(string)
	return email, ok
}
