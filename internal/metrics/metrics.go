// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証失敗の理由ラベル
const (
	AuthFailureMissing   = "missing"
	AuthFailureInvalid   = "invalid"
	AuthFailureForbidden = "forbidden"
)

// 決済インテント作成結果のラベル
const (
	IntentCreated       = "created"
	IntentProviderError = "provider_error"
)

// 決済確定結果のラベル
const (
	SettlementCleared        = "cleared"
	SettlementRecordFailed   = "record_failed"
	SettlementCartNotCleared = "cart_not_cleared"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(statusCode int, duration time.Duration)
	RecordAuthFailure(reason string)
	RecordPaymentIntent(outcome string)
	RecordSettlement(outcome string)
	RecordCartLinesCleared(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     prometheus.Histogram
	authFailures     *prometheus.CounterVec
	paymentIntents   *prometheus.CounterVec
	settlements      *prometheus.CounterVec
	cartLinesCleared prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodcapital_http_requests_total",
			Help: "HTTPステータスコード別のリクエスト数",
		}, []string{"status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodcapital_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodcapital_auth_failures_total",
			Help: "理由別の認証・認可失敗数",
		}, []string{"reason"}),
		paymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodcapital_payment_intents_total",
			Help: "結果別の決済インテント作成数",
		}, []string{"outcome"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodcapital_settlements_total",
			Help: "結果別の決済確定数",
		}, []string{"outcome"}),
		cartLinesCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodcapital_cart_lines_cleared_total",
			Help: "決済により削除されたカート行の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authFailures,
		c.paymentIntents,
		c.settlements,
		c.cartLinesCleared,
	)

	return c
}

// RecordHTTPRequest はHTTPステータスコードと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

// RecordAuthFailure は認証・認可の失敗を記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordPaymentIntent は決済インテント作成の結果を記録する。
func (c *Collector) RecordPaymentIntent(outcome string) {
	c.paymentIntents.WithLabelValues(outcome).Inc()
}

// RecordSettlement は決済確定の結果を記録する。
func (c *Collector) RecordSettlement(outcome string) {
	c.settlements.WithLabelValues(outcome).Inc()
}

// RecordCartLinesCleared は削除されたカート行数を記録する。
func (c *Collector) RecordCartLinesCleared(count int64) {
	if count <= 0 {
		return
	}
	c.cartLinesCleared.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
