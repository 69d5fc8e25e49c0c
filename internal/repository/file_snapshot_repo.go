package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSnapshotRepo は単一のJSONファイルを使用したスナップショットリポジトリ。
// 書き込みは一時ファイル経由のrenameで行い、途中クラッシュによる破損を防ぐ。
type FileSnapshotRepo struct {
	path string
}

// NewFileSnapshotRepo はFileSnapshotRepoを生成する。
func NewFileSnapshotRepo(path string) *FileSnapshotRepo {
	return &FileSnapshotRepo{path: path}
}

// Load は保存済みblobを取得する。ファイルが存在しない場合は(nil, nil)を返す。
func (r *FileSnapshotRepo) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return data, nil
}

// Save はblob全体を上書き保存する。親ディレクトリが無い場合は作成する。
func (r *FileSnapshotRepo) Save(_ context.Context, blob []byte) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SnapshotRepository = (*FileSnapshotRepo)(nil)
