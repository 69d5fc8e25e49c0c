// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/khaled-program/virtual-registry/internal/model"
)

// AdminSessionCookieName は管理セッションIDを保持するCookieの名前。
const AdminSessionCookieName = "admin_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// adminContextKey はリクエストコンテキストに管理者フラグを格納するためのキー。
var adminContextKey = contextKey("is_admin")

// AdminSessionValidator は管理セッションの検証に必要なインターフェース。
// admin.Serviceの部分集合として定義する。
type AdminSessionValidator interface {
	ValidateSession(sessionID string) bool
}

// NewAdminSessionMiddleware はHTTP Only Cookieから管理セッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みフラグをリクエストコンテキストに注入する。
// 未認証リクエストには統一エラーフォーマットの401を返す。
func NewAdminSessionMiddleware(validator AdminSessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AdminSessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !validator.ValidateSession(cookie.Value) {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAdminFromContext はリクエストコンテキストから管理者フラグを取得する。
// 管理セッションミドルウェアを通過したリクエストでのみtrueを返す。
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, ok := ctx.Value(adminContextKey).(bool)
	return ok && isAdmin
}

// ContextWithAdmin はコンテキストに管理者フラグを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminContextKey, true)
}
