package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/khaled-program/virtual-registry/internal/admin"
	"github.com/khaled-program/virtual-registry/internal/certificate"
	"github.com/khaled-program/virtual-registry/internal/ebook"
	"github.com/khaled-program/virtual-registry/internal/metrics"
	"github.com/khaled-program/virtual-registry/internal/middleware"
	"github.com/khaled-program/virtual-registry/internal/security"
	"github.com/khaled-program/virtual-registry/internal/session"
	"github.com/khaled-program/virtual-registry/internal/store"
	"github.com/khaled-program/virtual-registry/internal/suggest"
	"github.com/khaled-program/virtual-registry/internal/wizard"
)

const routerTestAccessCode = "1988117"

// memorySnapshotRepo はテスト用のインメモリSnapshotRepository実装。
type memorySnapshotRepo struct {
	blob []byte
}

func (m *memorySnapshotRepo) Load(ctx context.Context) ([]byte, error) { return m.blob, nil }
func (m *memorySnapshotRepo) Save(ctx context.Context, blob []byte) error {
	m.blob = blob
	return nil
}

// newTestServer は実コンポーネントを結線した統合テスト用サーバーを起動する。
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	recordStore := store.New(&memorySnapshotRepo{}, logger)
	if err := recordStore.Load(context.Background()); err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	wizardSessions := session.NewWizardStore(30 * time.Minute)
	adminSessions := session.NewAdminStore(30 * time.Minute)

	wizardSvc := wizard.NewService(recordStore, wizardSessions, security.NewInputSanitizer(), collector)
	adminSvc := admin.NewService(recordStore, adminSessions, routerTestAccessCode, collector)

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		Logger:             logger,
		CORSAllowedOrigin:  "http://localhost:3000",
		CSRFConfig:         middleware.CSRFConfig{},
		RateLimiter:        rl,
		SessionValidator:   adminSvc,
		StatusRecorder:     collector,
		MetricsGatherer:    registry,
		Cookies:            CookieConfig{},
		WizardService:      wizardSvc,
		AdminService:       adminSvc,
		CertificateService: certificate.NewService(recordStore, nil),
		EbookService:       ebook.NewService("https://picsum.photos/seed", 15),
		RecordLister:       recordStore,
		SuggestProvider:    suggest.DisabledProvider{},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// newJarClient はCookieを保持するHTTPクライアントを返す。
func newJarClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}
	client := *srv.Client()
	client.Jar = jar
	return &client
}

// postJSON はJSONボディのPOSTを送信する。
func postJSON(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return resp
}

// fetchCSRFToken はCSRFトークンを取得する（Cookieはjarに保存される）。
func fetchCSRFToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	resp, err := client.Get(baseURL + "/api/csrf-token")
	if err != nil {
		t.Fatalf("GET /api/csrf-token error = %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode CSRF token: %v", err)
	}
	return body.Token
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

// TestRouter_FullWizardFlow は開始→認証→送信→証明書→管理操作の一連のフローを検証する。
func TestRouter_FullWizardFlow(t *testing.T) {
	srv := newTestServer(t)
	client := newJarClient(t, srv)

	// 1. ウィザード開始（確認コードがレスポンスで返る）
	resp := postJSON(t, client, srv.URL+"/api/registration/start",
		`{"name":"خالد أحمد يوسف","phone":"+962791234567"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var started codeResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}
	resp.Body.Close()
	if len(started.Code) != 4 {
		t.Fatalf("code = %q, want 4 digits", started.Code)
	}

	// 2. 誤ったコードは400
	resp = postJSON(t, client, srv.URL+"/api/registration/verify", `{"code":"0000"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("verify(wrong) status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	// 3. 正しいコードで認証
	resp = postJSON(t, client, srv.URL+"/api/registration/verify", `{"code":"`+started.Code+`"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("verify status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// 4. フォーム送信で登録確定
	submitBody := `{
		"projectName": "عربة البقالة",
		"projectGoal": "توفير منتجات طازجة",
		"partners": [{"name": "سارة علي نور", "title": "CFO"}]
	}`
	resp = postJSON(t, client, srv.URL+"/api/registration/submit", submitBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var record struct {
		ProjectData struct {
			Partners []struct {
				ID string `json:"id"`
			} `json:"partners"`
		} `json:"projectData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("failed to decode submit response: %v", err)
	}
	resp.Body.Close()
	if len(record.ProjectData.Partners) != 1 || record.ProjectData.Partners[0].ID == "" {
		t.Error("partner ID should be assigned by the server")
	}

	// 5. 同じ電話番号の再登録は409
	resp = postJSON(t, client, srv.URL+"/api/registration/start",
		`{"name":"خالد أحمد يوسف","phone":"+962791234567"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate start status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// 6. 証明書データの取得
	resp, err := client.Get(srv.URL + "/api/certificates/+962791234567")
	if err != nil {
		t.Fatalf("GET certificate error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("certificate status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var cert certificate.Data
	if err := json.NewDecoder(resp.Body).Decode(&cert); err != nil {
		t.Fatalf("failed to decode certificate: %v", err)
	}
	resp.Body.Close()
	if cert.ProjectName != "عربة البقالة" {
		t.Errorf("certificate projectName = %q", cert.ProjectName)
	}

	// 7. フォント未設定のため証明書画像は503
	resp, err = client.Get(srv.URL + "/api/certificates/+962791234567/image")
	if err != nil {
		t.Fatalf("GET certificate image error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("certificate image status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	// 8. 管理ログイン（誤ったコードは401）
	resp = postJSON(t, client, srv.URL+"/api/admin/login", `{"code":"wrong"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login(wrong) status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp = postJSON(t, client, srv.URL+"/api/admin/login", `{"code":"`+routerTestAccessCode+`"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// 9. 登録一覧
	resp, err = client.Get(srv.URL + "/api/admin/registrations")
	if err != nil {
		t.Fatalf("GET registrations error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var listed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	resp.Body.Close()
	if listed.Total != 1 {
		t.Fatalf("total = %d, want 1", listed.Total)
	}

	// 10. CSVエクスポート（UTF-8 BOM付き）
	resp, err = client.Get(srv.URL + "/api/admin/registrations/export")
	if err != nil {
		t.Fatalf("GET export error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	csvBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to read export body: %v", err)
	}
	if !bytes.HasPrefix(csvBody, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("CSV export should start with a UTF-8 BOM")
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "registrations_") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// 11. 削除（状態変更のためCSRFトークンが必要）
	token := fetchCSRFToken(t, client, srv.URL)
	req, err := http.NewRequest(http.MethodDelete,
		srv.URL+"/api/admin/registrations/+962791234567",
		strings.NewReader(`{"code":"`+routerTestAccessCode+`"}`))
	if err != nil {
		t.Fatalf("failed to build delete request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// 12. 削除後の一覧は空
	resp, err = client.Get(srv.URL + "/api/admin/registrations")
	if err != nil {
		t.Fatalf("GET registrations error = %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	resp.Body.Close()
	if listed.Total != 0 {
		t.Errorf("total after delete = %d, want 0", listed.Total)
	}
}

// TestRouter_AdminRoutesRequireSession はセッションなしの管理アクセスが401になることを検証する。
func TestRouter_AdminRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)

	paths := []string{
		"/api/admin/registrations",
		"/api/admin/registrations/export",
	}
	for _, path := range paths {
		resp, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusUnauthorized)
		}
	}
}

// TestRouter_AdminMutationRequiresCSRFToken はCSRFトークンなしの状態変更が403になることを検証する。
func TestRouter_AdminMutationRequiresCSRFToken(t *testing.T) {
	srv := newTestServer(t)
	client := newJarClient(t, srv)

	resp := postJSON(t, client, srv.URL+"/api/admin/login", `{"code":"`+routerTestAccessCode+`"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	// CSRFトークンを取得せずにログアウトを試みる
	resp = postJSON(t, client, srv.URL+"/api/admin/logout", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("logout without CSRF token status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

// TestRouter_ProjectNameCheck は名前チェックエンドポイントを検証する。
func TestRouter_ProjectNameCheck(t *testing.T) {
	srv := newTestServer(t)
	client := newJarClient(t, srv)

	resp := postJSON(t, client, srv.URL+"/api/project-names/check",
		`{"name":"مشروع جديد","goal":"goal"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if got.Taken {
		t.Error("taken = true, want false for an empty store")
	}
}

// TestRouter_EbookPages は電子ブックエンドポイントを検証する。
func TestRouter_EbookPages(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/ebook/pages")
	if err != nil {
		t.Fatalf("GET /api/ebook/pages error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got pagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if got.Total != 15 {
		t.Errorf("total = %d, want 15", got.Total)
	}
}

// TestRouter_SecurityHeaders はセキュリティヘッダーが全レスポンスに付与されることを検証する。
func TestRouter_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
