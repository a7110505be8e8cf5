// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とワーカーから利用する。
type MetricsCollector interface {
	RecordSignIn(late bool)
	RecordSignOut(auto bool)
	RecordRejection(code string)
	RecordSweepClosed(count int)
	RecordSweepDuration(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signIns       *prometheus.CounterVec
	signOuts      *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	sweepClosed   prometheus.Counter
	sweepDuration prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kintai_sign_in_total",
			Help: "サインイン成功の合計数（遅刻区分別）",
		}, []string{"late"}),
		signOuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kintai_sign_out_total",
			Help: "サインアウト成功の合計数（手動/自動区分別）",
		}, []string{"mode"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kintai_rejection_total",
			Help: "打刻拒否の合計数（エラーコード別）",
		}, []string{"code"}),
		sweepClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kintai_sweep_closed_total",
			Help: "自動サインアウトで閉じられた記録の合計数",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kintai_sweep_duration_seconds",
			Help:    "自動サインアウト走査の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.signOuts,
		c.rejections,
		c.sweepClosed,
		c.sweepDuration,
	)

	return c
}

// RecordSignIn はサインイン成功を記録する。
func (c *Collector) RecordSignIn(late bool) {
	label := "false"
	if late {
		label = "true"
	}
	c.signIns.WithLabelValues(label).Inc()
}

// RecordSignOut はサインアウト成功を記録する。
func (c *Collector) RecordSignOut(auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	c.signOuts.WithLabelValues(mode).Inc()
}

// RecordRejection は打刻拒否を記録する。
func (c *Collector) RecordRejection(code string) {
	c.rejections.WithLabelValues(code).Inc()
}

// RecordSweepClosed は自動サインアウトで閉じられた記録数を記録する。
func (c *Collector) RecordSweepClosed(count int) {
	c.sweepClosed.Add(float64(count))
}

// RecordSweepDuration は走査の所要時間を記録する。
func (c *Collector) RecordSweepDuration(duration time.Duration) {
	c.sweepDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
