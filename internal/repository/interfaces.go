// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// ErrInvalidID はストアが解釈できない形式の車両IDが渡された場合のエラー。
var ErrInvalidID = errors.New("invalid car id")

// CarRepository は車両ドキュメントの永続化インターフェース。
// ドキュメントの中身は検証せず、そのまま保存・返却する。
type CarRepository interface {
	// List は登録順に車両を取得する。limitが0の場合は件数制限なし。
	List(ctx context.Context, skip, limit int64) ([]model.Car, error)

	// Count は車両の総数（推定値でもよい）を返す。
	Count(ctx context.Context) (int64, error)

	// FindByEmail は所有者メールアドレスが一致する車両を取得する。
	FindByEmail(ctx context.Context, email string) ([]model.Car, error)

	// Insert は車両を登録し、採番したIDを返す。
	// ドキュメントに含まれる "_id" は無視する。
	Insert(ctx context.Context, car model.Car) (string, error)

	// FindByID は指定IDの車両を取得する。見つからない場合はnilを返す。
	// IDの形式が不正な場合はErrInvalidIDを返す。
	FindByID(ctx context.Context, id string) (model.Car, error)

	// DeleteByID は指定IDの車両を削除し、削除件数を返す。
	DeleteByID(ctx context.Context, id string) (int64, error)

	// UpsertQuantity は指定IDの車両のquantityのみを更新する。
	// 車両が存在しない場合はquantityのみを持つ車両を指定IDで作成する。
	UpsertQuantity(ctx context.Context, id string, quantity any) (*model.UpdateResult, error)

	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
}
