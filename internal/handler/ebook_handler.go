package handler

import (
	"encoding/json"
	"net/http"

	"github.com/khaled-program/virtual-registry/internal/ebook"
)

// EbookServiceInterface は電子ブックハンドラーが必要とするサービスインターフェース。
type EbookServiceInterface interface {
	// Pages は全ページのメタデータを返す。
	Pages() []ebook.Page
	// TotalPages は総ページ数を返す。
	TotalPages() int
}

// EbookHandler は電子ブックのHTTPハンドラー。
type EbookHandler struct {
	service EbookServiceInterface
}

// NewEbookHandler はEbookHandlerを生成する。
func NewEbookHandler(service EbookServiceInterface) *EbookHandler {
	return &EbookHandler{service: service}
}

// pagesResponse は電子ブックページ一覧のレスポンス。
type pagesResponse struct {
	Pages []ebook.Page `json:"pages"`
	Total int          `json:"total"`
}

// ListPages は電子ブックページ一覧の取得を処理する。
// GET /api/ebook/pages
func (h *EbookHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pagesResponse{
		Pages: h.service.Pages(),
		Total: h.service.TotalPages(),
	})
}
