package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/validation"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Guard              *middleware.Guard
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
	HTTPMetrics        middleware.HTTPRecorder
	MetricsHandler     http.Handler
	Validator          *validation.Validator

	// 稼働確認
	DB Pinger

	// サービス
	TokenIssuer    TokenIssuer
	UserService    UserServiceInterface
	MenuService    MenuServiceInterface
	CartService    CartServiceInterface
	PaymentService PaymentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → Metrics → SecurityHeaders → CORS → RateLimit(General)
//
// 認証・認可はルートごとにGuardで適用する。Admin()は常に認証の後にロール確認を行う。
// /create-payment-intent には専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	valid := deps.Validator
	if valid == nil {
		valid = validation.New()
	}

	r.Use(chimw.RequestID)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	// --- 稼働確認（レート制限なし） ---
	r.Get("/", Root)
	r.Get("/health", Health(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	guard := deps.Guard
	tokenHandler := NewTokenHandler(deps.TokenIssuer)
	userHandler := NewUserHandler(deps.UserService, valid)
	menuHandler := NewMenuHandler(deps.MenuService, valid)
	cartHandler := NewCartHandler(deps.CartService, valid)
	paymentHandler := NewPaymentHandler(deps.PaymentService)

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/jwt", tokenHandler.Issue)

		// ユーザー管理
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.SignUp)
			r.With(guard.Admin()).Get("/", userHandler.List)
			r.With(guard.Admin()).Delete("/{id}", userHandler.Delete)

			// {subject} はPATCHではユーザーID、GETではemail
			r.With(guard.Admin()).Patch("/admin/{subject}", userHandler.Promote)
			r.With(guard.Authenticated()).Get("/admin/{subject}", userHandler.AdminStatus)
		})

		// メニュー
		r.Route("/menu", func(r chi.Router) {
			r.Get("/", menuHandler.List)
			r.With(guard.Admin()).Post("/", menuHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", menuHandler.Get)
				r.With(guard.Admin()).Put("/", menuHandler.Put)
				r.With(guard.Admin()).Delete("/", menuHandler.Delete)
			})
		})

		// レビュー
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", menuHandler.ListReviews)
			r.With(guard.Authenticated()).Post("/", menuHandler.CreateReview)
		})

		// カート
		r.Route("/carts", func(r chi.Router) {
			r.Get("/", cartHandler.List)
			r.Post("/", cartHandler.Add)
			r.Delete("/{id}", cartHandler.Remove)
		})

		// 決済
		r.With(deps.RateLimiter.PaymentIntentMiddleware()).Post("/create-payment-intent", paymentHandler.CreateIntent)
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", paymentHandler.Finalize)
			r.With(guard.Authenticated()).Get("/", paymentHandler.History)
			r.With(guard.Authenticated()).Post("/{id}/clear-cart", paymentHandler.RetryCartClear)
		})
	})

	return r
}
