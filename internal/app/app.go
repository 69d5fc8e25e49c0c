// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/khaled-program/virtual-registry/internal/admin"
	"github.com/khaled-program/virtual-registry/internal/certificate"
	"github.com/khaled-program/virtual-registry/internal/config"
	"github.com/khaled-program/virtual-registry/internal/database"
	"github.com/khaled-program/virtual-registry/internal/ebook"
	"github.com/khaled-program/virtual-registry/internal/handler"
	"github.com/khaled-program/virtual-registry/internal/logger"
	"github.com/khaled-program/virtual-registry/internal/metrics"
	"github.com/khaled-program/virtual-registry/internal/middleware"
	"github.com/khaled-program/virtual-registry/internal/repository"
	"github.com/khaled-program/virtual-registry/internal/security"
	"github.com/khaled-program/virtual-registry/internal/session"
	"github.com/khaled-program/virtual-registry/internal/store"
	"github.com/khaled-program/virtual-registry/internal/suggest"
	"github.com/khaled-program/virtual-registry/internal/wizard"
)

// sessionPurgeInterval は期限切れセッションの定期削除の間隔。
const sessionPurgeInterval = 5 * time.Minute

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
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
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// スナップショットストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. スナップショットリポジトリの選択
	// DATABASE_URL設定時はPostgreSQL、未設定時は単一JSONファイル
	var snapshotRepo repository.SnapshotRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		slog.Info("database connection established")
		snapshotRepo = repository.NewPostgresSnapshotRepo(db, repository.SnapshotNamespace)
	} else {
		slog.Info("using file snapshot store", slog.String("path", cfg.DataFile))
		snapshotRepo = repository.NewFileSnapshotRepo(cfg.DataFile)
	}

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. 登録レコードストアの復元
	recordStore := store.New(snapshotRepo, slog.Default())
	recordStore.OnPersistFailure(collector.RecordSnapshotPersistFailure)
	if err := recordStore.Load(ctx); err != nil {
		return fmt.Errorf("failed to load registration snapshot: %w", err)
	}
	slog.Info("registration store loaded", slog.Int("record_count", recordStore.Count()))

	// 4. セッションストアと定期パージ
	wizardSessions := session.NewWizardStore(cfg.WizardSessionTTL)
	adminSessions := session.NewAdminStore(cfg.AdminSessionTTL)
	go runSessionJanitor(ctx, wizardSessions, adminSessions)

	// 5. ドメインサービスの初期化
	sanitizer := security.NewInputSanitizer()
	wizardService := wizard.NewService(recordStore, wizardSessions, sanitizer, collector)
	adminService := admin.NewService(recordStore, adminSessions, cfg.AdminAccessCode, collector)
	certificateService := certificate.NewService(recordStore, buildCertificateRenderer(cfg))
	ebookService := ebook.NewService(cfg.EbookBaseURL, cfg.EbookTotalPages)
	suggestProvider := buildSuggestProvider(cfg)

	// 6. レート制限の初期化（設定はreq/min単位、rate.Limitはreq/sec単位）
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:       rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:      cfg.RateLimitGeneral,
		RegistrationRate:  rate.Limit(float64(cfg.RateLimitRegistration) / 60.0),
		RegistrationBurst: cfg.RateLimitRegistration,
		CleanupInterval:   5 * time.Minute,
	})
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter:      rateLimiter,
		SessionValidator: adminService,
		StatusRecorder:   collector,
		MetricsGatherer:  registry,
		Cookies: handler.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		},
		WizardService:      wizardService,
		AdminService:       adminService,
		CertificateService: certificateService,
		EbookService:       ebookService,
		RecordLister:       recordStore,
		SuggestProvider:    suggestProvider,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runSessionJanitor は期限切れセッションを定期的に削除する。
func runSessionJanitor(ctx context.Context, wizardSessions *session.WizardStore, adminSessions *session.AdminStore) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged := wizardSessions.Purge() + adminSessions.Purge()
			if purged > 0 {
				slog.Debug("expired sessions purged", slog.Int("count", purged))
			}
		}
	}
}

// buildCertificateRenderer は証明書PNGレンダラーを構築する。
// フォント未設定・読み込み失敗時はnilを返し、画像出力のみ無効化する。
func buildCertificateRenderer(cfg *config.Config) certificate.Renderer {
	if cfg.CertFontPath == "" {
		slog.Warn("CERT_FONT_PATH is not set; certificate image export is disabled")
		return nil
	}

	renderer, err := certificate.NewPNGRenderer(cfg.CertFontPath)
	if err != nil {
		slog.Warn("failed to initialize certificate renderer; image export is disabled",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return renderer
}

// buildSuggestProvider はプロジェクト名候補のProviderを構築する。
// API未設定・URL検証失敗時は常に空の候補を返すProviderにフォールバックする。
func buildSuggestProvider(cfg *config.Config) suggest.Provider {
	if cfg.SuggestionAPIURL == "" {
		slog.Info("SUGGESTION_API_URL is not set; name suggestions are disabled")
		return suggest.DisabledProvider{}
	}

	guard := security.NewSSRFGuard()
	if err := guard.ValidateURL(cfg.SuggestionAPIURL); err != nil {
		slog.Warn("suggestion API URL rejected; name suggestions are disabled",
			slog.String("error", err.Error()),
		)
		return suggest.DisabledProvider{}
	}

	client := guard.NewSafeClient(cfg.SuggestionTimeout)
	return suggest.NewHTTPProvider(client, cfg.SuggestionAPIURL, cfg.SuggestionAPIKey, slog.Default())
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
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
