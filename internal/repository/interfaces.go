// Package repository はスナップショット永続化のインターフェースと実装を提供する。
//
// 登録ストアは単一のJSON blobとして全体を読み書きする（部分更新なし）。
// blobは固定の名前空間キーで識別される。
package repository

import "context"

// SnapshotNamespace は登録マップ全体を保存する固定の名前空間キー。
// 旧実装（ブラウザのlocalStorage）のキー名を踏襲している。
const SnapshotNamespace = "virtualRegistrations"

// SnapshotRepository はスナップショットblobの永続化インターフェース。
type SnapshotRepository interface {
	// Load は保存済みblobを取得する。blobが存在しない場合は(nil, nil)を返す。
	Load(ctx context.Context) ([]byte, error)

	// Save はblob全体を上書き保存する。
	Save(ctx context.Context, blob []byte) error
}
