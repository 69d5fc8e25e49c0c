package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khaled-program/virtual-registry/internal/middleware"
	"github.com/khaled-program/virtual-registry/internal/model"
	"github.com/khaled-program/virtual-registry/internal/query"
)

// AdminServiceInterface は管理ダッシュボードハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// Login はアクセスコードを照合して管理セッションを発行する。
	Login(code string) (string, error)
	// Logout は管理セッションを破棄する。
	Logout(sessionID string)
	// ListRegistrations は検索・並べ替え済みの登録一覧を返す。
	ListRegistrations(q string, key query.SortKey, desc bool) ([]model.RegistrationRecord, error)
	// Delete はアクセスコードを再照合してから登録を削除する。
	Delete(ctx context.Context, phone, confirmCode string) error
	// ExportCSV は検索・並べ替え済みの一覧をCSVに変換する。
	ExportCSV(q string, key query.SortKey, desc bool) ([]byte, string, error)
}

// AdminHandler は管理ダッシュボードのHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
	cookies CookieConfig
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, cookies CookieConfig) *AdminHandler {
	return &AdminHandler{
		service: service,
		cookies: cookies,
	}
}

// adminLoginRequest は管理ログインリクエストのボディ。
type adminLoginRequest struct {
	Code string `json:"code"`
}

// adminDeleteRequest は登録削除リクエストのボディ。破壊的操作のためコード再入力を要求する。
type adminDeleteRequest struct {
	Code string `json:"code"`
}

// listResponse は登録一覧のレスポンス。
type listResponse struct {
	Registrations []model.RegistrationRecord `json:"registrations"`
	Total         int                        `json:"total"`
}

// Login は管理ログインを処理する。
// POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestBodyError())
		return
	}

	sessionID, err := h.service.Login(req.Code)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminSessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Logout は管理ログアウトを処理する。
// POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.AdminSessionCookieName); err == nil && cookie.Value != "" {
		h.service.Logout(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminSessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// ListRegistrations は登録一覧の取得を処理する。
// GET /api/admin/registrations?q=&sort=&dir=
func (h *AdminHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	key, desc, apiErr := parseSortParams(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	records, err := h.service.ListRegistrations(r.URL.Query().Get("q"), key, desc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listResponse{
		Registrations: records,
		Total:         len(records),
	})
}

// DeleteRegistration は登録の削除を処理する。
// DELETE /api/admin/registrations/{phone}
func (h *AdminHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	var req adminDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestBodyError())
		return
	}

	if err := h.service.Delete(r.Context(), phone, req.Code); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV は登録一覧のCSVダウンロードを処理する。
// GET /api/admin/registrations/export?q=&sort=&dir=
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	key, desc, apiErr := parseSortParams(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	data, filename, err := h.service.ExportCSV(r.URL.Query().Get("q"), key, desc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Write(data)
}

// parseSortParams はクエリパラメータから並べ替えキーと方向を取り出す。
// 未指定時は日付の降順（ダッシュボードの既定表示）。
func parseSortParams(r *http.Request) (query.SortKey, bool, *model.APIError) {
	key := query.SortKey(r.URL.Query().Get("sort"))
	if key == "" {
		key = query.SortKeyDate
	}
	if !query.IsValidSortKey(key) {
		return "", false, model.NewInvalidSortKeyError(string(key))
	}

	dir := r.URL.Query().Get("dir")
	switch dir {
	case "", "desc":
		return key, true, nil
	case "asc":
		return key, false, nil
	default:
		return "", false, model.NewInvalidSortKeyError(dir)
	}
}
