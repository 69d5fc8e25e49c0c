// Package query は登録レコードの検索・絞り込み・並べ替えを提供する。
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/khaled-program/virtual-registry/internal/model"
)

// SortKey は並べ替えキーを表す。
type SortKey string

const (
	SortKeyDate        SortKey = "date"
	SortKeyProjectName SortKey = "projectName"
	SortKeyFounderName SortKey = "founderName"
)

// IsValidSortKey はキーが定義済みかを返す。
func IsValidSortKey(key SortKey) bool {
	switch key {
	case SortKeyDate, SortKeyProjectName, SortKeyFounderName:
		return true
	}
	return false
}

// NormalizePhone は電話番号を保存・照合用の正規形に変換する。
// ストアのキーと重複チェックはすべてこの正規形で行う。
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

// CanonicalProjectName はプロジェクト名を比較用の正規形に変換する。
// 前後の空白を除去し小文字化する。重複チェックはすべてこの正規形で行う。
func CanonicalProjectName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ExistingProjectNames は全レコードのプロジェクト名を正規形で返す。
func ExistingProjectNames(records []model.RegistrationRecord) []string {
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, CanonicalProjectName(rec.ProjectData.ProjectName))
	}
	return names
}

// IsProjectNameTaken はプロジェクト名が既に使用済みかを正規形で判定する。
func IsProjectNameTaken(records []model.RegistrationRecord, name string) bool {
	canonical := CanonicalProjectName(name)
	for _, rec := range records {
		if CanonicalProjectName(rec.ProjectData.ProjectName) == canonical {
			return true
		}
	}
	return false
}

// FilterByQuery は検索文字列による絞り込みを行う。
// 創業者氏名・プロジェクト名は小文字化した部分一致、電話番号はそのままの部分一致で判定する。
// 空文字列（空白のみ含む）の場合は入力をそのまま返す。
func FilterByQuery(records []model.RegistrationRecord, q string) []model.RegistrationRecord {
	q = strings.TrimSpace(q)
	if q == "" {
		return records
	}

	lowered := strings.ToLower(q)
	out := make([]model.RegistrationRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.User.Name), lowered) ||
			strings.Contains(strings.ToLower(rec.ProjectData.ProjectName), lowered) ||
			strings.Contains(rec.User.Phone, q) {
			out = append(out, rec)
		}
	}
	return out
}

// SortBy はレコードをキーに従って安定ソートした新しいスライスを返す。
// 氏名・プロジェクト名はロケールを考慮した照合順序で比較する。
// descがtrueの場合は昇順比較の否定を用いる（降順は昇順の完全な逆）。
func SortBy(records []model.RegistrationRecord, key SortKey, desc bool) ([]model.RegistrationRecord, error) {
	if !IsValidSortKey(key) {
		return nil, model.NewInvalidSortKeyError(string(key))
	}

	out := make([]model.RegistrationRecord, len(records))
	copy(out, records)

	// collate.Collatorは並行使用不可のため呼び出しごとに生成する
	col := collate.New(language.Und)

	less := func(a, b model.RegistrationRecord) bool {
		switch key {
		case SortKeyDate:
			return a.RegistrationDate.Before(b.RegistrationDate)
		case SortKeyProjectName:
			return col.CompareString(a.ProjectData.ProjectName, b.ProjectData.ProjectName) < 0
		default: // SortKeyFounderName
			return col.CompareString(a.User.Name, b.User.Name) < 0
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	return out, nil
}
