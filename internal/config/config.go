// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Admin
	AdminAccessCode string // 管理ダッシュボードの共有シークレット
	AdminSessionTTL time.Duration

	// Snapshot store
	DataFile    string // ファイル型スナップショットの保存先
	DatabaseURL string // 設定時はPostgreSQLスナップショットストアを使用する

	// Wizard
	WizardSessionTTL time.Duration

	// Rate Limit
	RateLimitGeneral      int // req/min/クライアント
	RateLimitRegistration int // 登録開始のreq/min/クライアント

	// Certificate
	CertFontPath string // 証明書PNG描画用のTTFフォント。未設定時は画像出力を無効化する

	// Ebook
	EbookBaseURL    string
	EbookTotalPages int

	// Suggestion
	SuggestionAPIURL  string // 未設定時は代替名の提案を無効化する
	SuggestionAPIKey  string
	SuggestionTimeout time.Duration

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.AdminAccessCode = os.Getenv("ADMIN_ACCESS_CODE")
	if cfg.AdminAccessCode == "" {
		missing = append(missing, "ADMIN_ACCESS_CODE")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AdminSessionTTL = getEnvDuration("ADMIN_SESSION_TTL", 30*time.Minute)
	cfg.DataFile = getEnvString("DATA_FILE", "data/registrations.json")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.WizardSessionTTL = getEnvDuration("WIZARD_SESSION_TTL", 30*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitRegistration = getEnvInt("RATE_LIMIT_REGISTRATION", 10)
	cfg.CertFontPath = getEnvString("CERT_FONT_PATH", "")
	cfg.EbookBaseURL = getEnvString("EBOOK_BASE_URL", "https://picsum.photos/seed")
	cfg.EbookTotalPages = getEnvInt("EBOOK_TOTAL_PAGES", 15)
	cfg.SuggestionAPIURL = getEnvString("SUGGESTION_API_URL", "")
	cfg.SuggestionAPIKey = getEnvString("SUGGESTION_API_KEY", "")
	cfg.SuggestionTimeout = getEnvDuration("SUGGESTION_TIMEOUT", 10*time.Second)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(getEnvString("BASE_URL", ""), "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
