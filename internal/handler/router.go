package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabbirzzaman/go-autocar-server/internal/metrics"
	"github.com/sabbirzzaman/go-autocar-server/internal/middleware"
)

// ownerQueryParam は所有者チェックで比較するクエリパラメータ名。
const ownerQueryParam = "email"

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス（nilの場合は計測しない）
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// 認証
	Issuer   TokenIssuer
	Verifier middleware.TokenVerifier

	// 車両
	CarService    CarServiceInterface
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS → SecurityHeaders → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
// /my-cars のみBearer認証と所有者チェックを適用する。
// レート制限のキーは接続元アドレスであり、X-Forwarded-For等のヘッダーは参照しない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		authObserver middleware.AuthObserver
		issueRecord  TokenIssueRecorder
	)

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		authObserver = deps.Metrics
		issueRecord = deps.Metrics
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.Issuer, issueRecord)
	carHandler := NewCarHandler(deps.CarService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/", Root)

		// POST /login - トークン発行（ログイン専用レート制限を追加）
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)

		// 車両カタログ
		r.Get("/cars", carHandler.ListCars)
		r.Post("/cars", carHandler.AddCar)
		r.Get("/cars-pages", carHandler.CountCars)

		r.Get("/car/{id}", carHandler.GetCar)
		r.Put("/car/{id}", carHandler.UpdateQuantity)
		r.Delete("/car/{id}", carHandler.DeleteCar)

		// 所有車両一覧（Bearer認証 → 所有者チェック）
		r.With(
			middleware.NewBearerAuthMiddleware(deps.Verifier, authObserver),
			middleware.NewOwnershipMiddleware(ownerQueryParam, authObserver),
		).Get("/my-cars", carHandler.ListMyCars)
	})

	return r
}
