// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordRegistrationCreated()
	RecordRegistrationDeleted()
	RecordDuplicateRejection()
	RecordCodeIssued()
	RecordFailedVerification()
	RecordAdminLoginFailure()
	RecordCSVExport()
	RecordSnapshotPersistFailure()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrationsCreated    prometheus.Counter
	registrationsDeleted    prometheus.Counter
	duplicateRejections     prometheus.Counter
	codesIssued             prometheus.Counter
	failedVerifications     prometheus.Counter
	adminLoginFailures      prometheus.Counter
	csvExports              prometheus.Counter
	snapshotPersistFailures prometheus.Counter
	httpStatus              *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_registrations_created_total",
			Help: "登録完了の合計数",
		}),
		registrationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_registrations_deleted_total",
			Help: "管理画面からの登録削除の合計数",
		}),
		duplicateRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_duplicate_rejections_total",
			Help: "電話番号重複による登録拒否の合計数",
		}),
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_verification_codes_issued_total",
			Help: "発行された確認コードの合計数（再送を含む）",
		}),
		failedVerifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_failed_verifications_total",
			Help: "確認コード照合失敗の合計数",
		}),
		adminLoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_admin_login_failures_total",
			Help: "管理コード照合失敗の合計数",
		}),
		csvExports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_csv_exports_total",
			Help: "CSVエクスポートの合計数",
		}),
		snapshotPersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "virtreg_snapshot_persist_failures_total",
			Help: "スナップショット永続化失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "virtreg_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrationsCreated,
		c.registrationsDeleted,
		c.duplicateRejections,
		c.codesIssued,
		c.failedVerifications,
		c.adminLoginFailures,
		c.csvExports,
		c.snapshotPersistFailures,
		c.httpStatus,
	)

	return c
}

// RecordRegistrationCreated は登録完了を記録する。
func (c *Collector) RecordRegistrationCreated() {
	c.registrationsCreated.Inc()
}

// RecordRegistrationDeleted は登録削除を記録する。
func (c *Collector) RecordRegistrationDeleted() {
	c.registrationsDeleted.Inc()
}

// RecordDuplicateRejection は電話番号重複による登録拒否を記録する。
func (c *Collector) RecordDuplicateRejection() {
	c.duplicateRejections.Inc()
}

// RecordCodeIssued は確認コードの発行を記録する。
func (c *Collector) RecordCodeIssued() {
	c.codesIssued.Inc()
}

// RecordFailedVerification は確認コード照合失敗を記録する。
func (c *Collector) RecordFailedVerification() {
	c.failedVerifications.Inc()
}

// RecordAdminLoginFailure は管理コード照合失敗を記録する。
func (c *Collector) RecordAdminLoginFailure() {
	c.adminLoginFailures.Inc()
}

// RecordCSVExport はCSVエクスポートを記録する。
func (c *Collector) RecordCSVExport() {
	c.csvExports.Inc()
}

// RecordSnapshotPersistFailure はスナップショット永続化失敗を記録する。
func (c *Collector) RecordSnapshotPersistFailure() {
	c.snapshotPersistFailures.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
