// Package admin は管理ダッシュボードのビジネスロジックを提供する。
//
// 管理者はアクセスコード1つでログインする（ユーザーアカウントは存在しない）。
// 削除などの破壊的操作では操作のたびにアクセスコードの再入力を要求する。
package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/khaled-program/virtual-registry/internal/export"
	"github.com/khaled-program/virtual-registry/internal/metrics"
	"github.com/khaled-program/virtual-registry/internal/model"
	"github.com/khaled-program/virtual-registry/internal/query"
	"github.com/khaled-program/virtual-registry/internal/session"
	"github.com/khaled-program/virtual-registry/internal/store"
)

// Service は管理ダッシュボードのビジネスロジックを提供する。
type Service struct {
	store      *store.RecordStore
	sessions   *session.AdminStore
	accessCode string
	collector  metrics.MetricsCollector

	// now はエクスポートファイル名の日付に使用する（テストで差し替え可能）。
	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	recordStore *store.RecordStore,
	sessions *session.AdminStore,
	accessCode string,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		store:      recordStore,
		sessions:   sessions,
		accessCode: accessCode,
		collector:  collector,
		now:        time.Now,
	}
}

// Login はアクセスコードを照合し、一致すれば管理セッションを発行する。
// 照合はタイミング攻撃を避けるため定数時間比較で行う。
func (s *Service) Login(code string) (string, error) {
	if !s.codeMatches(code) {
		s.collector.RecordAdminLoginFailure()
		slog.Warn("管理コードの照合に失敗")
		return "", model.NewInvalidAdminCodeError()
	}

	sessionID, err := s.sessions.Create()
	if err != nil {
		return "", err
	}

	slog.Info("管理者がログイン")
	return sessionID, nil
}

// Logout は管理セッションを破棄する。
func (s *Service) Logout(sessionID string) {
	s.sessions.Delete(sessionID)
	slog.Info("管理者がログアウト")
}

// ValidateSession はセッションIDが有効な管理セッションかを返す。
func (s *Service) ValidateSession(sessionID string) bool {
	return s.sessions.Validate(sessionID)
}

// ListRegistrations は検索・並べ替え済みの登録一覧を返す。
func (s *Service) ListRegistrations(q string, key query.SortKey, desc bool) ([]model.RegistrationRecord, error) {
	records := query.FilterByQuery(s.store.List(), q)
	return query.SortBy(records, key, desc)
}

// Delete は登録を削除する。破壊的操作のため、アクセスコードの再入力を照合してから実行する。
// 対象が存在しない場合はRECORD_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, phone, confirmCode string) error {
	if !s.codeMatches(confirmCode) {
		s.collector.RecordAdminLoginFailure()
		return model.NewInvalidAdminCodeError()
	}

	if !s.store.Delete(ctx, phone) {
		return model.NewRecordNotFoundError(phone)
	}

	s.collector.RecordRegistrationDeleted()
	slog.Info("登録を削除", slog.String("phone", phone))
	return nil
}

// ExportCSV は検索・並べ替え済みの一覧をCSVに変換し、内容とファイル名を返す。
func (s *Service) ExportCSV(q string, key query.SortKey, desc bool) ([]byte, string, error) {
	records, err := s.ListRegistrations(q, key, desc)
	if err != nil {
		return nil, "", err
	}

	s.collector.RecordCSVExport()
	slog.Info("CSVをエクスポート", slog.Int("record_count", len(records)))

	return export.ToCSV(records), export.Filename(s.now()), nil
}

// codeMatches はアクセスコードを定数時間で比較する。
func (s *Service) codeMatches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.accessCode)) == 1
}
