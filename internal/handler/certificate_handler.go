package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khaled-program/virtual-registry/internal/certificate"
)

// CertificateServiceInterface は証明書ハンドラーが必要とするサービスインターフェース。
type CertificateServiceInterface interface {
	// Get は電話番号の登録に対応する証明書データを返す。
	Get(phone string) (*certificate.Data, error)
	// RenderPNG は証明書PNGを生成する。
	RenderPNG(phone string) ([]byte, error)
}

// CertificateHandler は登録証明書のHTTPハンドラー。
type CertificateHandler struct {
	service CertificateServiceInterface
}

// NewCertificateHandler はCertificateHandlerを生成する。
func NewCertificateHandler(service CertificateServiceInterface) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// GetData は証明書の表示データ取得を処理する。
// GET /api/certificates/{phone}
func (h *CertificateHandler) GetData(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	data, err := h.service.Get(phone)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// GetImage は証明書PNG画像の取得を処理する。
// GET /api/certificates/{phone}/image
func (h *CertificateHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	png, err := h.service.RenderPNG(phone)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="certificate.png"`)
	w.Write(png)
}
