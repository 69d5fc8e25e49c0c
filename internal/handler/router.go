package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/khaled-program/virtual-registry/internal/metrics"
	"github.com/khaled-program/virtual-registry/internal/middleware"
	"github.com/khaled-program/virtual-registry/internal/suggest"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	SessionValidator  middleware.AdminSessionValidator
	StatusRecorder    middleware.HTTPStatusRecorder
	MetricsGatherer   prometheus.Gatherer

	// Cookie属性
	Cookies CookieConfig

	// サービス
	WizardService      WizardServiceInterface
	AdminService       AdminServiceInterface
	CertificateService CertificateServiceInterface
	EbookService       EbookServiceInterface
	RecordLister       RecordLister
	SuggestProvider    suggest.Provider
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics → RateLimit(General)
//
// 管理ルート（/api/admin/*、ログインを除く）には管理セッションミドルウェアとCSRF検証を追加する。
// 登録ウィザード開始には専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}

	registrationHandler := NewRegistrationHandler(deps.WizardService, deps.Cookies)
	adminHandler := NewAdminHandler(deps.AdminService, deps.Cookies)
	certificateHandler := NewCertificateHandler(deps.CertificateService)
	ebookHandler := NewEbookHandler(deps.EbookService)
	projectNameHandler := NewProjectNameHandler(deps.RecordLister, deps.SuggestProvider)

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/health", handleHealth)
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}
	r.Handle("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 公開APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 登録ウィザード
		r.Route("/api/registration", func(r chi.Router) {
			// POST /api/registration/start - ウィザード開始（専用レート制限を追加）
			r.With(deps.RateLimiter.RegistrationMiddleware()).Post("/start", registrationHandler.Start)

			r.Post("/resend", registrationHandler.Resend)
			r.Post("/verify", registrationHandler.Verify)
			r.Post("/submit", registrationHandler.Submit)
		})

		// プロジェクト名チェック
		r.Post("/api/project-names/check", projectNameHandler.Check)

		// 証明書
		r.Route("/api/certificates/{phone}", func(r chi.Router) {
			r.Get("/", certificateHandler.GetData)
			r.Get("/image", certificateHandler.GetImage)
		})

		// 電子ブック
		r.Get("/api/ebook/pages", ebookHandler.ListPages)

		// 管理ログイン（セッション不要）
		r.Post("/api/admin/login", adminHandler.Login)

		// --- 管理ルート（セッション必須） ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAdminSessionMiddleware(deps.SessionValidator))
			r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

			r.Post("/api/admin/logout", adminHandler.Logout)

			r.Route("/api/admin/registrations", func(r chi.Router) {
				r.Get("/", adminHandler.ListRegistrations)
				r.Get("/export", adminHandler.ExportCSV)
				r.Delete("/{phone}", adminHandler.DeleteRegistration)
			})
		})
	})

	return r
}

// handleHealth はヘルスチェックを処理する。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
