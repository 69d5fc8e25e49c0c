// Package export は登録レコードのCSVエクスポートを提供する。
//
// 出力はExcelでの文字化けを防ぐためUTF-8 BOM付きとする。
// フィールドの引用は必要な場合のみ行う（カンマ・引用符・改行を含むとき）。
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/khaled-program/virtual-registry/internal/model"
)

// utf8BOM はファイル先頭に付与するバイト順マーク。
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader は固定のヘッダ行。データ行と同じくカンマのみで連結する。
const csvHeader = "Registration Date,Founder Name,Founder Phone,Project Name,Project Goal,Partners"

// dateLayout はCSV内の登録日時の書式。
const dateLayout = "2006-01-02 15:04:05"

// ToCSV は全レコードをCSVバイト列に変換する。レコードの順序は入力のまま。
func ToCSV(records []model.RegistrationRecord) []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString(csvHeader)

	for _, rec := range records {
		buf.WriteByte('\n')
		buf.WriteString(encodeRow(rec))
	}

	return buf.Bytes()
}

// encodeRow は1レコードをCSV行に変換する。
func encodeRow(rec model.RegistrationRecord) string {
	fields := []string{
		rec.RegistrationDate.Format(dateLayout),
		rec.User.Name,
		rec.User.Phone,
		rec.ProjectData.ProjectName,
		rec.ProjectData.ProjectGoal,
		formatPartners(rec.ProjectData.Partners),
	}

	for i, f := range fields {
		fields[i] = escapeField(f)
	}
	return strings.Join(fields, ",")
}

// formatPartners はパートナー一覧を「氏名 (役職)」を「; 」で連結した1フィールドに変換する。
func formatPartners(partners []model.Partner) string {
	if len(partners) == 0 {
		return ""
	}

	parts := make([]string, 0, len(partners))
	for _, p := range partners {
		parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.Title))
	}
	return strings.Join(parts, "; ")
}

// escapeField はカンマ・引用符・改行を含むフィールドのみを引用符で囲む。
// フィールド内の引用符は二重化する。
func escapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Filename はエクスポート日付入りのファイル名を返す。
func Filename(t time.Time) string {
	return fmt.Sprintf("registrations_%s.csv", t.Format("2006-01-02"))
}
