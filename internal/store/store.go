// Package store は電話番号をキーとした登録レコードのインメモリストアを提供する。
//
// 全レコードは起動時にスナップショットから読み込まれ、以降の参照はメモリ上で行う。
// 変更操作のたびにマップ全体をJSON blobとして永続化する（部分更新なし）。
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/khaled-program/virtual-registry/internal/model"
	"github.com/khaled-program/virtual-registry/internal/repository"
)

// SnapshotSchemaVersion は現行のスナップショットスキーマバージョン。
const SnapshotSchemaVersion = 1

// snapshot はスナップショットblobのJSON表現。
// 旧形式（電話番号→レコードのプレーンなマップ）からの読み込みにも対応する。
type snapshot struct {
	SchemaVersion int                                  `json:"schema_version"`
	Registrations map[string]model.RegistrationRecord `json:"registrations"`
}

// RecordStore は電話番号→登録レコードのインメモリマップ。
// すべての操作は排他制御され、複数ゴルーチンから安全に利用できる。
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]model.RegistrationRecord
	repo    repository.SnapshotRepository
	logger  *slog.Logger

	// onPersistFailure は永続化失敗時に呼ばれるフック（メトリクス用、nil可）。
	onPersistFailure func()
}

// New はRecordStoreを生成する。Load を呼ぶまでストアは空。
func New(repo repository.SnapshotRepository, logger *slog.Logger) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{
		records: make(map[string]model.RegistrationRecord),
		repo:    repo,
		logger:  logger,
	}
}

// OnPersistFailure は永続化失敗時に呼ばれるフックを設定する。
func (s *RecordStore) OnPersistFailure(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPersistFailure = fn
}

// Load はスナップショットからレコードを読み込む。
// blobが存在しない・読めない・壊れている場合は空のマップで開始する（フェイルソフト）。
// エラーを返すのはロジック上の障害ではなく想定外のみで、通常は常にnilを返す。
func (s *RecordStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("スナップショットの読み込みに失敗、空の状態で開始", slog.String("error", err.Error()))
		s.records = make(map[string]model.RegistrationRecord)
		return nil
	}
	if blob == nil {
		s.records = make(map[string]model.RegistrationRecord)
		return nil
	}

	s.records = decodeSnapshot(blob, s.logger)
	s.logger.Info("スナップショットを読み込み", slog.Int("record_count", len(s.records)))
	return nil
}

// decodeSnapshot はblobをレコードマップに復元する。
// 現行のバージョン付き形式を試し、ダメなら旧形式のプレーンマップとして解釈する。
// どちらでも解釈できない場合は空のマップを返す。
func decodeSnapshot(blob []byte, logger *slog.Logger) map[string]model.RegistrationRecord {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err == nil && snap.Registrations != nil {
		return snap.Registrations
	}

	// 旧形式: 電話番号→レコードのプレーンなマップ
	var legacy map[string]model.RegistrationRecord
	if err := json.Unmarshal(blob, &legacy); err == nil && legacy != nil {
		logger.Info("旧形式のスナップショットを読み込み", slog.Int("record_count", len(legacy)))
		return legacy
	}

	logger.Warn("スナップショットblobを解釈できないため破棄、空の状態で開始")
	return make(map[string]model.RegistrationRecord)
}

// Create はレコードを追加する。同じ電話番号が既に存在する場合は
// ALREADY_REGISTEREDエラーを返し、ストアは変更されない。
func (s *RecordStore) Create(ctx context.Context, rec model.RegistrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	phone := rec.User.Phone
	if _, exists := s.records[phone]; exists {
		return model.NewAlreadyRegisteredError(phone)
	}

	s.records[phone] = rec
	s.persist(ctx)
	return nil
}

// Delete は電話番号のレコードを削除する。冪等で、存在しない番号を
// 指定してもエラーにならない。削除が発生した場合にtrueを返す。
func (s *RecordStore) Delete(ctx context.Context, phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[phone]; !exists {
		return false
	}

	delete(s.records, phone)
	s.persist(ctx)
	return true
}

// Get は電話番号のレコードを取得する。
func (s *RecordStore) Get(phone string) (model.RegistrationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[phone]
	return rec, ok
}

// Has は電話番号が登録済みかを返す。
func (s *RecordStore) Has(phone string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[phone]
	return ok
}

// List は全レコードのコピーを返す。順序は不定。
func (s *RecordStore) List() []model.RegistrationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RegistrationRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

// Count は登録レコード数を返す。
func (s *RecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// persist はマップ全体をスナップショットとして保存する。呼び出し側でロック取得済みであること。
// 永続化に失敗してもインメモリの状態は維持し、エラーはログに記録するのみ。
func (s *RecordStore) persist(ctx context.Context) {
	blob, err := json.Marshal(snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Registrations: s.records,
	})
	if err != nil {
		s.logger.Error("スナップショットのシリアライズに失敗", slog.String("error", err.Error()))
		return
	}

	if err := s.repo.Save(ctx, blob); err != nil {
		s.logger.Error("スナップショットの保存に失敗", slog.String("error", err.Error()))
		if s.onPersistFailure != nil {
			s.onPersistFailure()
		}
	}
}
