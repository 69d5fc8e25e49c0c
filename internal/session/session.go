// Package session はウィザードおよび管理画面のインメモリセッション管理を提供する。
//
// セッションはすべてTTL付きで、期限切れのものは参照時に破棄されるほか、
// 定期的なパージでも回収される。
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khaled-program/virtual-registry/internal/model"
)

// WizardSession は登録ウィザード1回分の進行状態を表す。
type WizardSession struct {
	ID        string
	User      model.User
	Code      string // 4桁の確認コード
	Verified  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// WizardStore はウィザードセッションのインメモリストア。
type WizardStore struct {
	mu       sync.RWMutex
	sessions map[string]*WizardSession
	ttl      time.Duration
	now      func() time.Time
}

// NewWizardStore はWizardStoreを生成する。
func NewWizardStore(ttl time.Duration) *WizardStore {
	return &WizardStore{
		sessions: make(map[string]*WizardSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create は新しいウィザードセッションを発行する。
func (s *WizardStore) Create(user model.User, code string) *WizardSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &WizardSession{
		ID:        uuid.New().String(),
		User:      user,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get はセッションを取得する。期限切れのセッションはその場で破棄しfalseを返す。
// 返される値はコピーで、書き換えてもストアには影響しない。
func (s *WizardStore) Get(id string) (WizardSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return WizardSession{}, false
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, id)
		return WizardSession{}, false
	}
	return *sess, true
}

// SetCode は確認コードを再発行して差し替え、有効期限を延長する。
func (s *WizardStore) SetCode(id, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.now().After(sess.ExpiresAt) {
		return false
	}
	sess.Code = code
	sess.Verified = false
	sess.ExpiresAt = s.now().Add(s.ttl)
	return true
}

// MarkVerified はセッションを認証済みにする。
func (s *WizardStore) MarkVerified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.now().After(sess.ExpiresAt) {
		return false
	}
	sess.Verified = true
	return true
}

// Delete はセッションを破棄する。存在しないIDでもエラーにならない。
func (s *WizardStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Purge は期限切れセッションを回収し、回収数を返す。
func (s *WizardStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}

// Len は有効期限を問わない現在のセッション数を返す。
func (s *WizardStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// AdminStore は管理画面ログインセッションのインメモリストア。
type AdminStore struct {
	mu       sync.RWMutex
	sessions map[string]time.Time // セッションID → 有効期限
	ttl      time.Duration
	now      func() time.Time
}

// NewAdminStore はAdminStoreを生成する。
func NewAdminStore(ttl time.Duration) *AdminStore {
	return &AdminStore{
		sessions: make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create は新しい管理セッションを発行しIDを返す。
func (s *AdminStore) Create() (string, error) {
	id, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate admin session ID: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = s.now().Add(s.ttl)
	return id, nil
}

// Validate はセッションIDが有効かを返す。期限切れのセッションはその場で破棄する。
func (s *AdminStore) Validate(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.sessions[id]
	if !ok {
		return false
	}
	if s.now().After(expiresAt) {
		delete(s.sessions, id)
		return false
	}
	return true
}

// Delete はセッションを破棄する（ログアウト）。
func (s *AdminStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Purge は期限切れセッションを回収し、回収数を返す。
func (s *AdminStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for id, expiresAt := range s.sessions {
		if now.After(expiresAt) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
