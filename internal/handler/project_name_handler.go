package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/khaled-program/virtual-registry/internal/model"
	"github.com/khaled-program/virtual-registry/internal/query"
	"github.com/khaled-program/virtual-registry/internal/suggest"
)

// RecordLister は登録レコード一覧の取得に必要なインターフェース。
// store.RecordStoreの部分集合として定義する。
type RecordLister interface {
	List() []model.RegistrationRecord
}

// ProjectNameHandler はプロジェクト名の重複チェックと代替案提案のHTTPハンドラー。
type ProjectNameHandler struct {
	lister   RecordLister
	provider suggest.Provider
}

// NewProjectNameHandler はProjectNameHandlerを生成する。
func NewProjectNameHandler(lister RecordLister, provider suggest.Provider) *ProjectNameHandler {
	return &ProjectNameHandler{
		lister:   lister,
		provider: provider,
	}
}

// checkRequest はプロジェクト名チェックリクエストのボディ。
type checkRequest struct {
	Name string `json:"name"`
	Goal string `json:"goal"`
}

// checkResponse はプロジェクト名チェックのレスポンス。
// Suggestionsは名前が使用済みの場合のみ埋められる（取得失敗時は空）。
type checkResponse struct {
	Taken       bool     `json:"taken"`
	Suggestions []string `json:"suggestions"`
}

// Check はプロジェクト名の重複チェックを処理する。
// POST /api/project-names/check
func (h *ProjectNameHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestBodyError())
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingProjectFieldsError())
		return
	}

	resp := checkResponse{
		Taken:       query.IsProjectNameTaken(h.lister.List(), req.Name),
		Suggestions: []string{},
	}

	// 使用済みの場合のみ代替案を問い合わせる。提案は補助機能のため失敗しても結果は返す
	if resp.Taken {
		suggestions, err := h.provider.Suggest(r.Context(), req.Name, req.Goal)
		if err != nil {
			slog.Warn("代替名の取得に失敗", slog.String("error", err.Error()))
		} else {
			resp.Suggestions = suggestions
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
