// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// コンテンツストア、ハンドラー、インポーターから利用する。
type MetricsCollector interface {
	RecordPostSaved(operation string)
	RecordCommentAdded()
	RecordSubscription(alreadySubscribed bool)
	RecordFallbackServed(operation, reason string)
	RecordSeedInserted(posts, comments int)
	RecordPostsImported(imported, skipped int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	postsSaved     *prometheus.CounterVec
	commentsAdded  prometheus.Counter
	subscriptions  *prometheus.CounterVec
	fallbackServed *prometheus.CounterVec
	seedInserted   *prometheus.CounterVec
	postsImported  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		postsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_posts_saved_total",
			Help: "保存された記事の合計数（operation: create, update）",
		}, []string{"operation"}),
		commentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_comments_added_total",
			Help: "投稿されたコメントの合計数",
		}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_newsletter_subscriptions_total",
			Help: "ニュースレター購読リクエストの合計数（result: new, existing）",
		}, []string{"result"}),
		fallbackServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_fallback_served_total",
			Help: "同梱データで応答した読み取りの合計数",
		}, []string{"operation", "reason"}),
		seedInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_seed_inserted_total",
			Help: "シードで挿入されたレコードの合計数",
		}, []string{"kind"}),
		postsImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_posts_imported_total",
			Help: "外部フィードからの取り込み結果の合計数（result: imported, skipped）",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.postsSaved,
		c.commentsAdded,
		c.subscriptions,
		c.fallbackServed,
		c.seedInserted,
		c.postsImported,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordPostSaved は記事の作成・更新を記録する。
func (c *Collector) RecordPostSaved(operation string) {
	c.postsSaved.WithLabelValues(operation).Inc()
}

// RecordCommentAdded はコメント投稿を記録する。
func (c *Collector) RecordCommentAdded() {
	c.commentsAdded.Inc()
}

// RecordSubscription はニュースレター購読を記録する。
func (c *Collector) RecordSubscription(alreadySubscribed bool) {
	result := "new"
	if alreadySubscribed {
		result = "existing"
	}
	c.subscriptions.WithLabelValues(result).Inc()
}

// RecordFallbackServed は同梱データでの応答を記録する。
func (c *Collector) RecordFallbackServed(operation, reason string) {
	c.fallbackServed.WithLabelValues(operation, reason).Inc()
}

// RecordSeedInserted はシードで挿入した件数を記録する。
func (c *Collector) RecordSeedInserted(posts, comments int) {
	c.seedInserted.WithLabelValues("post").Add(float64(posts))
	c.seedInserted.WithLabelValues("comment").Add(float64(comments))
}

// RecordPostsImported は外部フィードの取り込み結果を記録する。
func (c *Collector) RecordPostsImported(imported, skipped int) {
	c.postsImported.WithLabelValues("imported").Add(float64(imported))
	c.postsImported.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はHTTPリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// statusRecorder はレスポンスのステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware はレスポンスのステータスコードと処理時間を記録するミドルウェアを返す。
func Middleware(c MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			c.RecordHTTPStatus(rec.status)
			c.RecordRequestLatency(time.Since(start))
		})
	}
}

// NopCollector は何も記録しないMetricsCollector。CLIやテストで使う。
type NopCollector struct{}

func (NopCollector) RecordPostSaved(string)              {}
func (NopCollector) RecordCommentAdded()                 {}
func (NopCollector) RecordSubscription(bool)             {}
func (NopCollector) RecordFallbackServed(string, string) {}
func (NopCollector) RecordSeedInserted(int, int)         {}
func (NopCollector) RecordPostsImported(int, int)        {}
func (NopCollector) RecordHTTPStatus(int)                {}
func (NopCollector) RecordRequestLatency(time.Duration)  {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
