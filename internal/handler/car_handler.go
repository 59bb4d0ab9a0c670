package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sabbirzzaman/go-autocar-server/internal/auth"
	"github.com/sabbirzzaman/go-autocar-server/internal/car"
	"github.com/sabbirzzaman/go-autocar-server/internal/middleware"
	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// CarServiceInterface は車両ハンドラーが必要とするサービスインターフェース。
type CarServiceInterface interface {
	ListCars(ctx context.Context, page model.Page) ([]model.Car, error)
	CountCars(ctx context.Context) (int64, error)
	ListOwnedCars(ctx context.Context, email string) ([]model.Car, error)
	AddCar(ctx context.Context, c model.Car) (*model.InsertResult, error)
	GetCar(ctx context.Context, id string) (model.Car, error)
	DeleteCar(ctx context.Context, id string) (*model.DeleteResult, error)
	UpdateQuantity(ctx context.Context, id string, quantity any) (*model.UpdateResult, error)
}

// CarHandler は車両カタログのHTTPハンドラー。
type CarHandler struct {
	service CarServiceInterface
}

// NewCarHandler はCarHandlerを生成する。
func NewCarHandler(service CarServiceInterface) *CarHandler {
	return &CarHandler{service: service}
}

// countResponse は車両数のレスポンス。
type countResponse struct {
	Count int64 `json:"count"`
}

// ListCars は車両一覧を返す。
// GET /cars?page=&filter=
func (h *CarHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := car.ParsePage(q.Get("page"), q.Get("filter"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cars, err := h.service.ListCars(r.Context(), page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cars)
}

// CountCars は車両数を返す。
// GET /cars-pages
func (h *CarHandler) CountCars(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountCars(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

// ListMyCars は所有者チェック済みのメールアドレスに一致する車両一覧を返す。
// Bearer認証・所有者チェックのミドルウェアの後に配置する。
// GET /my-cars?email=
func (h *CarHandler) ListMyCars(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.AuthorizedEmailFromContext(r.Context())
	if !ok {
		middleware.WriteAuthError(w, auth.ErrForbidden)
		return
	}

	cars, err := h.service.ListOwnedCars(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cars)
}

// AddCar は車両を登録する。ボディのJSONオブジェクトを検証せずに保存する。
// POST /cars
func (h *CarHandler) AddCar(w http.ResponseWriter, r *http.Request) {
	body, err := decodeJSONObject(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.AddCar(r.Context(), model.Car(body))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetCar は車両詳細を返す。
// GET /car/{id}
func (h *CarHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// DeleteCar は車両を削除する。
// DELETE /car/{id}
func (h *CarHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeleteCar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateQuantity は車両の在庫数（quantity）のみを更新する。車両が存在しない場合は作成する。
// ボディのquantity以外のフィールドは無視する。
// PUT /car/{id}
func (h *CarHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	body, err := decodeJSONObject(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), body[model.CarQuantityField])
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
