// Package certificate は登録証明書の生成を提供する。
//
// 証明書は画面表示用のデータと、ダウンロード用のPNG画像の2形態を持つ。
// PNG生成にはTrueTypeフォントが必要で、未設定の環境では画像出力のみ無効になる。
package certificate

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/fogleman/gg"

	"github.com/khaled-program/virtual-registry/internal/model"
	"github.com/khaled-program/virtual-registry/internal/store"
)

// Data は証明書1枚分の表示データ。
type Data struct {
	FounderName      string          `json:"founderName"`
	FounderPhone     string          `json:"founderPhone"`
	ProjectName      string          `json:"projectName"`
	ProjectGoal      string          `json:"projectGoal"`
	Partners         []model.Partner `json:"partners"`
	RegistrationDate time.Time       `json:"registrationDate"`
}

// BuildData は登録レコードから証明書データを構築する。
func BuildData(rec model.RegistrationRecord) Data {
	return Data{
		FounderName:      rec.User.Name,
		FounderPhone:     rec.User.Phone,
		ProjectName:      rec.ProjectData.ProjectName,
		ProjectGoal:      rec.ProjectData.ProjectGoal,
		Partners:         rec.ProjectData.Partners,
		RegistrationDate: rec.RegistrationDate,
	}
}

// Renderer は証明書の画像描画のインターフェース。
type Renderer interface {
	// Render は証明書データをPNGバイト列に変換する。
	Render(data Data) ([]byte, error)
}

// 証明書画像の寸法（px）。
const (
	imageWidth  = 1200
	imageHeight = 850
)

// PNGRenderer はggによる証明書PNG描画の実装。
type PNGRenderer struct {
	fontPath string
}

// NewPNGRenderer はPNGRendererを生成する。フォントファイルが存在しない場合はエラーを返す。
func NewPNGRenderer(fontPath string) (*PNGRenderer, error) {
	if fontPath == "" {
		return nil, fmt.Errorf("font path is empty")
	}
	if _, err := os.Stat(fontPath); err != nil {
		return nil, fmt.Errorf("certificate font not found: %w", err)
	}
	return &PNGRenderer{fontPath: fontPath}, nil
}

// Render は証明書データをPNGバイト列に変換する。
func (r *PNGRenderer) Render(data Data) ([]byte, error) {
	dc := gg.NewContext(imageWidth, imageHeight)

	// 背景と二重枠
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0.13, 0.17, 0.35)
	dc.SetLineWidth(8)
	dc.DrawRectangle(30, 30, imageWidth-60, imageHeight-60)
	dc.Stroke()
	dc.SetLineWidth(2)
	dc.DrawRectangle(50, 50, imageWidth-100, imageHeight-100)
	dc.Stroke()

	if err := dc.LoadFontFace(r.fontPath, 52); err != nil {
		return nil, fmt.Errorf("failed to load certificate font: %w", err)
	}
	dc.SetRGB(0.13, 0.17, 0.35)
	dc.DrawStringAnchored("شهادة تسجيل مشروع", imageWidth/2, 140, 0.5, 0.5)

	if err := dc.LoadFontFace(r.fontPath, 40); err != nil {
		return nil, fmt.Errorf("failed to load certificate font: %w", err)
	}
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored(data.ProjectName, imageWidth/2, 280, 0.5, 0.5)

	if err := dc.LoadFontFace(r.fontPath, 28); err != nil {
		return nil, fmt.Errorf("failed to load certificate font: %w", err)
	}
	dc.DrawStringAnchored(data.FounderName, imageWidth/2, 380, 0.5, 0.5)
	dc.DrawStringAnchored(data.FounderPhone, imageWidth/2, 430, 0.5, 0.5)
	dc.DrawStringAnchored(data.ProjectGoal, imageWidth/2, 510, 0.5, 0.5)

	// パートナー一覧
	y := 590.0
	for _, p := range data.Partners {
		dc.DrawStringAnchored(fmt.Sprintf("%s (%s)", p.Name, p.Title), imageWidth/2, y, 0.5, 0.5)
		y += 44
	}

	dc.DrawStringAnchored(data.RegistrationDate.Format("2006-01-02"), imageWidth/2, imageHeight-110, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode certificate PNG: %w", err)
	}
	return buf.Bytes(), nil
}

var _ Renderer = (*PNGRenderer)(nil)

// Service は証明書の取得と描画を提供する。
type Service struct {
	store    *store.RecordStore
	renderer Renderer // nilの場合は画像出力が無効
}

// NewService はServiceを生成する。rendererはnil可（画像出力無効）。
func NewService(recordStore *store.RecordStore, renderer Renderer) *Service {
	return &Service{store: recordStore, renderer: renderer}
}

// Get は電話番号の登録に対応する証明書データを返す。
func (s *Service) Get(phone string) (*Data, error) {
	rec, ok := s.store.Get(phone)
	if !ok {
		return nil, model.NewRecordNotFoundError(phone)
	}
	data := BuildData(rec)
	return &data, nil
}

// RenderPNG は証明書PNGを生成する。画像出力が無効な環境では
// IMAGE_EXPORT_UNAVAILABLEを返す。
func (s *Service) RenderPNG(phone string) ([]byte, error) {
	data, err := s.Get(phone)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, model.NewImageExportUnavailableError()
	}

	png, err := s.renderer.Render(*data)
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return png, nil
}
