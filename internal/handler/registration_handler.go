// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/khaled-program/virtual-registry/internal/model"
	"github.com/khaled-program/virtual-registry/internal/wizard"
)

// WizardSessionCookieName はウィザードセッションIDを保持するCookieの名前。
const WizardSessionCookieName = "wizard_session"

// WizardServiceInterface は登録ウィザードハンドラーが必要とするサービスインターフェース。
type WizardServiceInterface interface {
	// Start は電話番号入力を検証してウィザードセッションを開始する。
	Start(ctx context.Context, user model.User) (*wizard.StartResult, error)
	// Resend は確認コードを再発行する。
	Resend(sessionID string) (string, error)
	// Verify は確認コードを照合する。
	Verify(sessionID, code string) error
	// Submit はフォーム送信を検証して登録を確定する。
	Submit(ctx context.Context, sessionID string, project model.ProjectData) (*model.RegistrationRecord, error)
}

// CookieConfig はハンドラーが発行するCookieの属性。
type CookieConfig struct {
	Secure bool
	Domain string
}

// RegistrationHandler は登録ウィザードのHTTPハンドラー。
type RegistrationHandler struct {
	service WizardServiceInterface
	cookies CookieConfig
}

// NewRegistrationHandler はRegistrationHandlerを生成する。
func NewRegistrationHandler(service WizardServiceInterface, cookies CookieConfig) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		cookies: cookies,
	}
}

// startRequest はウィザード開始リクエストのボディ。
type startRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// codeResponse は確認コードのレスポンス。
// SMS送信を行わないため、コードはそのまま画面表示用に返される。
type codeResponse struct {
	Code string `json:"code"`
}

// verifyRequest は確認コード照合リクエストのボディ。
type verifyRequest struct {
	Code string `json:"code"`
}

// Start はウィザード開始を処理する。
// POST /api/registration/start
func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestBodyError())
		return
	}

	result, err := h.service.Start(r.Context(), model.User{Name: req.Name, Phone: req.Phone})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setWizardCookie(w, result.SessionID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(codeResponse{Code: result.Code})
}

// Resend は確認コードの再発行を処理する。
// POST /api/registration/resend
func (h *RegistrationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := wizardSessionID(r)
	if !ok {
		handleServiceError(w, model.NewSessionNotFoundError())
		return
	}

	code, err := h.service.Resend(sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(codeResponse{Code: code})
}

// Verify は確認コードの照合を処理する。
// POST /api/registration/verify
func (h *RegistrationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := wizardSessionID(r)
	if !ok {
		handleServiceError(w, model.NewSessionNotFoundError())
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestBodyError())
		return
	}

	if err := h.service.Verify(sessionID, req.Code); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Submit はフォーム送信による登録確定を処理する。
// POST /api/registration/submit
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := wizardSessionID(r)
	if !ok {
		handleServiceError(w, model.NewSessionNotFoundError())
		return
	}

	var project model.ProjectData
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestBodyError())
		return
	}

	record, err := h.service.Submit(r.Context(), sessionID, project)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 登録完了後はウィザードCookieを破棄する
	h.clearWizardCookie(w)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// wizardSessionID はリクエストのCookieからウィザードセッションIDを取り出す。
func wizardSessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(WizardSessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// setWizardCookie はウィザードセッションCookieを設定する。
func (h *RegistrationHandler) setWizardCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     WizardSessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearWizardCookie はウィザードセッションCookieを破棄する。
func (h *RegistrationHandler) clearWizardCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     WizardSessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// --- ヘルパー関数 ---

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// newInvalidRequestBodyError はリクエストボディの解析失敗エラーを生成する。
func newInvalidRequestBodyError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "تعذر قراءة محتوى الطلب.",
		Category: "validation",
		Action:   "أرسل الطلب بصيغة JSON صحيحة.",
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "حدث خطأ داخلي.",
		Category: "system",
		Action:   "يرجى المحاولة مرة أخرى بعد قليل.",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeAlreadyRegistered, model.ErrCodeProjectNameTaken:
		return http.StatusConflict
	case model.ErrCodeInvalidFounderName,
		model.ErrCodeInvalidPhone,
		model.ErrCodeMissingProjectFields,
		model.ErrCodeInvalidPartnerName,
		model.ErrCodeInvalidJobTitle,
		model.ErrCodeDuplicateJobTitle,
		model.ErrCodePartnerTitlesExhausted,
		model.ErrCodeInvalidVerificationCode,
		model.ErrCodeInvalidSortKey:
		return http.StatusBadRequest
	case model.ErrCodeSessionNotFound:
		return http.StatusGone
	case model.ErrCodeNotVerified:
		return http.StatusForbidden
	case model.ErrCodeRecordNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidAdminCode, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeImageExportUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
