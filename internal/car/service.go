// Package car は車両カタログのドメインロジックを提供する。
package car

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sabbirzzaman/go-autocar-server/internal/metrics"
	"github.com/sabbirzzaman/go-autocar-server/internal/model"
	"github.com/sabbirzzaman/go-autocar-server/internal/repository"
)

// WriteRecorder は車両の書き込み操作の記録先。metrics.Collectorが実装する。
type WriteRecorder interface {
	RecordCarWrite(operation string)
}

// Service は車両カタログのサービス層。
// 一覧・件数・所有者別一覧・登録・取得・削除・在庫数更新を提供する。
type Service struct {
	repo     repository.CarRepository
	recorder WriteRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilでもよい。
func NewService(repo repository.CarRepository, recorder WriteRecorder) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
	}
}

// ParsePage はクエリパラメータpage・filterからskip/limitを算出する。
// 数値として解釈できない値は未指定として扱う。
// どちらかが0以外の場合はskip = page*filter、limit = filterとなり、
// どちらも0の場合は全件（Page{}）を返す。
func ParsePage(pageParam, filterParam string) (model.Page, error) {
	page, ok := parseCount(pageParam)
	if !ok {
		return model.Page{}, model.NewInvalidPaginationError("page")
	}
	filter, ok := parseCount(filterParam)
	if !ok {
		return model.Page{}, model.NewInvalidPaginationError("filter")
	}

	if page == 0 && filter == 0 {
		return model.Page{}, nil
	}
	// skipがint64に収まらないページは存在しない
	if filter > 0 && page > math.MaxInt64/filter {
		return model.Page{}, model.NewInvalidPaginationError("page")
	}
	return model.Page{Skip: page * filter, Limit: filter}, nil
}

// parseCount は非負整数を解析する。数値でない場合は0、負数の場合はokがfalseになる。
func parseCount(s string) (n int64, ok bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, true
	}
	return n, n >= 0
}

// ListCars は指定ページの車両一覧を返す。
func (s *Service) ListCars(ctx context.Context, page model.Page) ([]model.Car, error) {
	cars, err := s.repo.List(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("車両一覧の取得に失敗しました: %w", err)
	}
	return cars, nil
}

// CountCars は登録されている車両数を返す。
func (s *Service) CountCars(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("車両数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ListOwnedCars は所有者メールアドレスが一致する車両一覧を返す。
// 所有者チェックは呼び出し側のミドルウェアで完了している前提。
func (s *Service) ListOwnedCars(ctx context.Context, email string) ([]model.Car, error) {
	cars, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("所有車両の取得に失敗しました: %w", err)
	}
	return cars, nil
}

// AddCar は車両を登録する。ドキュメントの中身は検証しない。
func (s *Service) AddCar(ctx context.Context, car model.Car) (*model.InsertResult, error) {
	id, err := s.repo.Insert(ctx, car)
	if err != nil {
		return nil, fmt.Errorf("車両の登録に失敗しました: %w", err)
	}
	s.recordWrite(metrics.CarWriteInsert)

	return &model.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// GetCar は指定IDの車両を返す。
// IDの形式が不正な場合はINVALID_ID、存在しない場合はCAR_NOT_FOUNDを返す。
func (s *Service) GetCar(ctx context.Context, id string) (model.Car, error) {
	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err, id, "車両の取得に失敗しました")
	}
	if car == nil {
		return nil, model.NewCarNotFoundError(id)
	}
	return car, nil
}

// DeleteCar は指定IDの車両を削除する。存在しない場合は削除件数0で成功する。
func (s *Service) DeleteCar(ctx context.Context, id string) (*model.DeleteResult, error) {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err, id, "車両の削除に失敗しました")
	}
	if deleted > 0 {
		s.recordWrite(metrics.CarWriteDelete)
	}

	return &model.DeleteResult{Acknowledged: true, DeletedCount: deleted}, nil
}

// UpdateQuantity は指定IDの車両の在庫数のみを更新する。
// 車両が存在しない場合は在庫数のみを持つ車両を作成する。
func (s *Service) UpdateQuantity(ctx context.Context, id string, quantity any) (*model.UpdateResult, error) {
	result, err := s.repo.UpsertQuantity(ctx, id, quantity)
	if err != nil {
		return nil, wrapRepositoryError(err, id, "在庫数の更新に失敗しました")
	}
	s.recordWrite(metrics.CarWriteUpdateQuantity)

	return result, nil
}

// Ping はストアへの疎通を確認する。
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// wrapRepositoryError はIDの形式エラーをAPIErrorに変換し、それ以外はラップする。
func wrapRepositoryError(err error, id, msg string) error {
	if errors.Is(err, repository.ErrInvalidID) {
		return model.NewInvalidIDError(id)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *Service) recordWrite(operation string) {
	if s.recorder != nil {
		s.recorder.RecordCarWrite(operation)
	}
}
