// Package wizard は登録ウィザードのビジネスロジックを提供する。
//
// フローは 電話番号入力 → 確認コード照合 → フォーム送信 の3段階で、
// 進行状態はウィザードセッションとして保持される。
// SMS送信は行わず、発行した確認コードをそのままレスポンスで返して画面に表示する。
package wizard

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/khaled-program/virtual-registry/internal/metrics"
	"github.com/khaled-program/virtual-registry/internal/model"
	"github.com/khaled-program/virtual-registry/internal/query"
	"github.com/khaled-program/virtual-registry/internal/security"
	"github.com/khaled-program/virtual-registry/internal/session"
	"github.com/khaled-program/virtual-registry/internal/store"
)

// StartResult はウィザード開始のレスポンス。
// Codeは画面表示用の確認コード（SMS送信のシミュレーション）。
type StartResult struct {
	SessionID string
	Code      string
}

// Service は登録ウィザードのビジネスロジックを提供する。
type Service struct {
	store     *store.RecordStore
	sessions  *session.WizardStore
	sanitizer security.InputSanitizerService
	collector metrics.MetricsCollector

	// codeGen は確認コード生成関数（テストで差し替え可能）。
	codeGen func() (string, error)
}

// NewService はServiceを生成する。
func NewService(
	recordStore *store.RecordStore,
	sessions *session.WizardStore,
	sanitizer security.InputSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		store:     recordStore,
		sessions:  sessions,
		sanitizer: sanitizer,
		collector: collector,
		codeGen:   generateVerificationCode,
	}
}

// Start は電話番号入力を検証してウィザードセッションを開始する。
// 登録済みの電話番号の場合はこの時点でALREADY_REGISTEREDを返す。
func (s *Service) Start(ctx context.Context, user model.User) (*StartResult, error) {
	user.Name = s.sanitizer.SanitizeText(user.Name)
	user.Phone = query.NormalizePhone(user.Phone)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if s.store.Has(user.Phone) {
		s.collector.RecordDuplicateRejection()
		return nil, model.NewAlreadyRegisteredError(user.Phone)
	}

	code, err := s.codeGen()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	sess := s.sessions.Create(user, code)
	s.collector.RecordCodeIssued()

	slog.Info("ウィザードセッションを開始",
		slog.String("session_id", sess.ID),
		slog.String("phone", user.Phone),
	)

	return &StartResult{SessionID: sess.ID, Code: code}, nil
}

// Resend は確認コードを再発行する。既存の認証状態はリセットされる。
func (s *Service) Resend(sessionID string) (string, error) {
	code, err := s.codeGen()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	if !s.sessions.SetCode(sessionID, code) {
		return "", model.NewSessionNotFoundError()
	}
	s.collector.RecordCodeIssued()

	slog.Info("確認コードを再発行", slog.String("session_id", sessionID))
	return code, nil
}

// Verify は確認コードを照合し、一致すればセッションを認証済みにする。
func (s *Service) Verify(sessionID, code string) error {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return model.NewSessionNotFoundError()
	}

	if code == "" || code != sess.Code {
		s.collector.RecordFailedVerification()
		return model.NewInvalidVerificationCodeError()
	}

	if !s.sessions.MarkVerified(sessionID) {
		return model.NewSessionNotFoundError()
	}

	slog.Info("電話番号認証が完了", slog.String("session_id", sessionID))
	return nil
}

// Submit はフォーム送信を検証して登録を確定する。
// 成功するとウィザードセッションは破棄され、登録レコードを返す。
func (s *Service) Submit(ctx context.Context, sessionID string, project model.ProjectData) (*model.RegistrationRecord, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, model.NewSessionNotFoundError()
	}
	if !sess.Verified {
		return nil, model.NewNotVerifiedError()
	}

	project = s.sanitizeProject(project)

	if err := project.Validate(); err != nil {
		return nil, err
	}

	if query.IsProjectNameTaken(s.store.List(), project.ProjectName) {
		return nil, model.NewProjectNameTakenError(project.ProjectName)
	}

	// パートナーのIDはサーバー側で採番する
	for i := range project.Partners {
		if project.Partners[i].ID == "" {
			project.Partners[i].ID = uuid.New().String()
		}
	}

	record := model.RegistrationRecord{
		User:             sess.User,
		ProjectData:      project,
		RegistrationDate: time.Now().UTC(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		if apiErr, ok := err.(*model.APIError); ok && apiErr.Code == model.ErrCodeAlreadyRegistered {
			s.collector.RecordDuplicateRejection()
		}
		return nil, err
	}

	s.sessions.Delete(sessionID)
	s.collector.RecordRegistrationCreated()

	slog.Info("登録が完了",
		slog.String("phone", record.User.Phone),
		slog.String("project_name", record.ProjectData.ProjectName),
		slog.Int("partner_count", len(record.ProjectData.Partners)),
	)

	return &record, nil
}

// sanitizeProject はフォームの自由記述フィールドをすべてサニタイズする。
func (s *Service) sanitizeProject(project model.ProjectData) model.ProjectData {
	project.ProjectName = s.sanitizer.SanitizeText(project.ProjectName)
	project.ProjectGoal = s.sanitizer.SanitizeText(project.ProjectGoal)
	for i := range project.Partners {
		project.Partners[i].Name = s.sanitizer.SanitizeText(project.Partners[i].Name)
	}
	return project
}

// generateVerificationCode は1000〜9999の4桁確認コードを生成する。
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
