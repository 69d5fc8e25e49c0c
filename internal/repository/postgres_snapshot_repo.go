package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresSnapshotRepo はPostgreSQLを使用したスナップショットリポジトリ。
// snapshotsテーブルに名前空間ごと1行のblobを保持する。
type PostgresSnapshotRepo struct {
	db        *sql.DB
	namespace string
}

// NewPostgresSnapshotRepo はPostgresSnapshotRepoを生成する。
func NewPostgresSnapshotRepo(db *sql.DB, namespace string) *PostgresSnapshotRepo {
	return &PostgresSnapshotRepo{db: db, namespace: namespace}
}

// Load は保存済みblobを取得する。行が存在しない場合は(nil, nil)を返す。
func (r *PostgresSnapshotRepo) Load(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT blob FROM snapshots WHERE namespace = $1`,
		r.namespace,
	).Scan(&blob)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return blob, nil
}

// Save はblob全体をUPSERTで上書き保存する。
func (r *PostgresSnapshotRepo) Save(ctx context.Context, blob []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshots (namespace, blob, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (namespace) DO UPDATE SET blob = $2, updated_at = $3`,
		r.namespace, blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SnapshotRepository = (*PostgresSnapshotRepo)(nil)
