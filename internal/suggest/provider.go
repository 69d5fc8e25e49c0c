// Package suggest はプロジェクト名の候補生成を提供する。
//
// 候補は外部の生成APIに問い合わせる。候補APIはあくまで補助機能のため、
// 失敗時はエラーにせず空の候補リストを返す（フェイルソフト）。
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Provider はプロジェクト名候補生成のインターフェース。
type Provider interface {
	// Suggest は希望した名前とプロジェクトの目的から代替名の候補を生成する。
	// 候補が得られない場合は空のスライスを返す（エラーは内部障害のみ）。
	Suggest(ctx context.Context, name, goal string) ([]string, error)
}

// suggestRequest は候補APIへのリクエストボディ。
type suggestRequest struct {
	Name string `json:"name"`
	Goal string `json:"goal"`
}

// suggestResponse は候補APIのレスポンスボディ。
type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// HTTPProvider は外部HTTP APIに問い合わせるProvider実装。
// クライアントにはSSRF防止機能付きのものを渡すこと。
type HTTPProvider struct {
	client *http.Client
	url    string
	apiKey string
	logger *slog.Logger
}

// NewHTTPProvider はHTTPProviderを生成する。
func NewHTTPProvider(client *http.Client, url, apiKey string, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProvider{
		client: client,
		url:    url,
		apiKey: apiKey,
		logger: logger,
	}
}

// Suggest は候補APIに問い合わせて名前候補を返す。
// APIの失敗・タイムアウト・不正レスポンスはすべて空の候補として扱う。
func (p *HTTPProvider) Suggest(ctx context.Context, name, goal string) ([]string, error) {
	body, err := json.Marshal(suggestRequest{Name: name, Goal: goal})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal suggest request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build suggest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("候補APIへのリクエストに失敗", slog.String("error", err.Error()))
		return []string{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("候補APIが異常ステータスを返却", slog.Int("status", resp.StatusCode))
		return []string{}, nil
	}

	// レスポンスサイズの上限は1MB
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		p.logger.Warn("候補APIレスポンスの読み込みに失敗", slog.String("error", err.Error()))
		return []string{}, nil
	}

	var parsed suggestResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		p.logger.Warn("候補APIレスポンスの解析に失敗", slog.String("error", err.Error()))
		return []string{}, nil
	}
	if parsed.Suggestions == nil {
		return []string{}, nil
	}
	return parsed.Suggestions, nil
}

// DisabledProvider は候補API未設定時のProvider実装。常に空の候補を返す。
type DisabledProvider struct{}

// Suggest は常に空の候補を返す。
func (DisabledProvider) Suggest(ctx context.Context, name, goal string) ([]string, error) {
	return []string{}, nil
}

var (
	_ Provider = (*HTTPProvider)(nil)
	_ Provider = DisabledProvider{}
)
