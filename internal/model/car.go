// Package model はドメインモデルを定義する。
package model

// 車両ドキュメントの既知フィールド名。
const (
	CarIDField       = "_id"
	CarEmailField    = "email"
	CarQuantityField = "quantity"
)

// Car は出品された車両を表すドキュメント。
// スキーマは検証せず、クライアントが送った内容をそのまま保持する。
// ストアが採番したIDは "_id" キーに格納される。
type Car map[string]any

// ID は車両ドキュメントのIDを返す。未採番の場合は空文字列。
func (c Car) ID() string {
	id, _ := c[CarIDField].(string)
	return id
}

// Email は車両の所有者メールアドレスを返す。文字列でない場合は空文字列。
func (c Car) Email() string {
	email, _ := c[CarEmailField].(string)
	return email
}

// WithoutID は "_id" を除いたコピーを返す。
// ストアへ保存する本文の生成に使用する。
func (c Car) WithoutID() Car {
	doc := make(Car, len(c))
	for k, v := range c {
		if k == CarIDField {
			continue
		}
		doc[k] = v
	}
	return doc
}

// Page は車両一覧のskip/limitを表す。
// Limitが0の場合は件数制限なし。
type Page struct {
	Skip  int64
	Limit int64
}

// InsertResult は車両登録の結果。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult は車両更新（upsert）の結果。
type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedID    *string `json:"upsertedId"`
	UpsertedCount int64   `json:"upsertedCount"`
}

// DeleteResult は車両削除の結果。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
