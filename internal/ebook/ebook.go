// Package ebook は登録完了者向け電子ブックのページメタデータを提供する。
//
// ページ画像は外部の画像サービス（シード付きURL）から配信されるため、
// サーバー側はURLの組み立てのみを行う。
package ebook

import "fmt"

// Page は電子ブックの1ページ分のメタデータ。
type Page struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

// Service は電子ブックページの組み立てを提供する。
type Service struct {
	baseURL    string
	totalPages int
}

// NewService はServiceを生成する。
// baseURLはシード付き画像サービスのベースURL（例: "https://picsum.photos/seed"）。
func NewService(baseURL string, totalPages int) *Service {
	return &Service{baseURL: baseURL, totalPages: totalPages}
}

// Pages は全ページのメタデータを順番に返す。
func (s *Service) Pages() []Page {
	pages := make([]Page, 0, s.totalPages)
	for i := 1; i <= s.totalPages; i++ {
		pages = append(pages, Page{
			Number:   i,
			Title:    pageTitle(i, s.totalPages),
			ImageURL: fmt.Sprintf("%s/ebook-%d/800/1100", s.baseURL, i),
		})
	}
	return pages
}

// TotalPages は総ページ数を返す。
func (s *Service) TotalPages() int {
	return s.totalPages
}

// pageTitle はページ番号に応じたタイトルを返す。
func pageTitle(number, total int) string {
	switch number {
	case 1:
		return "مقدمة"
	case total:
		return "الخاتمة"
	default:
		return fmt.Sprintf("الفصل %d", number-1)
	}
}
