package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/foodcapital/internal/cart"
	"github.com/hitoshi/foodcapital/internal/config"
	"github.com/hitoshi/foodcapital/internal/database"
	"github.com/hitoshi/foodcapital/internal/handler"
	"github.com/hitoshi/foodcapital/internal/logger"
	"github.com/hitoshi/foodcapital/internal/menu"
	"github.com/hitoshi/foodcapital/internal/metrics"
	"github.com/hitoshi/foodcapital/internal/middleware"
	"github.com/hitoshi/foodcapital/internal/payment"
	"github.com/hitoshi/foodcapital/internal/repository"
	"github.com/hitoshi/foodcapital/internal/security"
	"github.com/hitoshi/foodcapital/internal/token"
	"github.com/hitoshi/foodcapital/internal/user"
	"github.com/hitoshi/foodcapital/internal/validation"
	"github.com/hitoshi/foodcapital/internal/worker"
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, slog.LevelInfo)

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck はフル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = os.Getenv("PORT")
		}
		if port == "" {
			port = "5000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newMetrics はサービス用のPrometheusレジストリとコレクターを生成する。
func newMetrics() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// buildRouter は全依存関係をワイヤリングしたルーターを返す。
// 返り値のRateLimiterは呼び出し側で停止する。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry, collector *metrics.Collector) (http.Handler, *middleware.RateLimiter) {
	// リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	menuRepo := repository.NewPostgresMenuRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)
	paymentRepo := repository.NewPostgresPaymentRepo(db)

	// トークンとガード
	issuer := token.NewJWTIssuer(cfg.AccessTokenSecret)
	guard := middleware.NewGuard(issuer, userRepo).WithMetrics(collector)

	// ドメインサービス
	sanitizer := security.NewTextSanitizer()
	provider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:  cfg.StripeSecretKey,
		APIURL:     cfg.StripeAPIURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	})

	limiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitPaymentIntent),
	)

	deps := &handler.RouterDeps{
		Logger:             slog.Default(),
		Guard:              guard,
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HTTPMetrics:        collector,
		MetricsHandler:     metrics.Handler(reg),
		Validator:          validation.New(),
		DB:                 db,

		TokenIssuer:    issuer,
		UserService:    user.NewService(userRepo),
		MenuService:    menu.NewService(menuRepo, reviewRepo, sanitizer),
		CartService:    cart.NewService(cartRepo, sanitizer),
		PaymentService: payment.NewCoordinator(provider, paymentRepo, cartRepo, collector),
	}

	return handler.NewRouter(deps), limiter
}

// newWorkerHandler はワーカーのメトリクス公開用ハンドラーを返す。
// /metrics はgathererの内容を、/health は常に200を返す。
func newWorkerHandler(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	return r
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	reg, collector := newMetrics()
	router, limiter := buildRouter(cfg, db, reg, collector)
	defer limiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-stop:
	}

	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 決済記録済みで残ったカート行の整合ジョブを定期実行する。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	reg, collector := newMetrics()
	reconcileJob := payment.NewReconcileJob(
		repository.NewPostgresPaymentRepo(db), collector, slog.Default(),
	)
	scheduler := worker.NewScheduler(slog.Default(), reconcileJob)

	metricsServer := &http.Server{
		Addr:         ":" + cfg.WorkerMetricsPort,
		Handler:      newWorkerHandler(reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("worker metrics server starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// メトリクスが出せなくても整合ジョブは止めない
			slog.Error("worker metrics server error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting",
		slog.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	// ブロッキング
	scheduler.Start(ctx, cfg.ReconcileInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("worker metrics server shutdown failed: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate は未適用のマイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.CurrentVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はdistroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
