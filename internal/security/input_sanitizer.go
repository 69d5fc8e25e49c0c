// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService は登録フォームの自由記述入力（氏名・プロジェクト名・
// プロジェクトの目的）をサニタイズし、保存データへのHTML混入を防ぐ。
// bluemondayのStrictPolicyを使用し、すべてのタグを除去したプレーンテキストのみを保存する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizerService は自由記述入力のサニタイズ機能のインターフェースを定義する。
// 登録フォームの送信内容を保存する前に使用される。
type InputSanitizerService interface {
	// SanitizeText は入力からHTMLタグをすべて除去し、前後の空白を取り除いた
	// プレーンテキストを返す。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(input string) string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しないため、<script>等は中身ごと、
// <b>等の装飾タグはタグのみが除去される。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からHTMLタグをすべて除去したプレーンテキストを返す。
// bluemondayはテキストをHTMLエスケープして返すため、保存用にアンエスケープする。
func (s *inputSanitizer) SanitizeText(input string) string {
	cleaned := s.policy.Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
