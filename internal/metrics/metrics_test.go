package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は指定名のメトリクスファミリーを返す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// counterWithLabel はラベル値が一致するカウンタの値を返す。
func counterWithLabel(mf *dto.MetricFamily, label, value string) float64 {
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordPostSaved_CountsByOperation は操作別に記事保存数が増加することを検証する。
func TestRecordPostSaved_CountsByOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPostSaved("create")
	c.RecordPostSaved("create")
	c.RecordPostSaved("update")

	mf := findMetric(t, reg, "portfolio_posts_saved_total")
	if got := counterWithLabel(mf, "operation", "create"); got != 2 {
		t.Errorf("create = %v, want 2", got)
	}
	if got := counterWithLabel(mf, "operation", "update"); got != 1 {
		t.Errorf("update = %v, want 1", got)
	}
}

// TestRecordCommentAdded_IncrementsCounter はコメント数カウンタが増加することを検証する。
func TestRecordCommentAdded_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommentAdded()

	mf := findMetric(t, reg, "portfolio_comments_added_total")
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("comments_added_total = %v, want 1", got)
	}
}

// TestRecordSubscription_SplitsNewAndExisting は新規と既存の購読が別ラベルで記録されることを検証する。
func TestRecordSubscription_SplitsNewAndExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSubscription(false)
	c.RecordSubscription(true)
	c.RecordSubscription(true)

	mf := findMetric(t, reg, "portfolio_newsletter_subscriptions_total")
	if got := counterWithLabel(mf, "result", "new"); got != 1 {
		t.Errorf("new = %v, want 1", got)
	}
	if got := counterWithLabel(mf, "result", "existing"); got != 2 {
		t.Errorf("existing = %v, want 2", got)
	}
}

// TestRecordFallbackServed_Labels はフォールバックが操作と理由のラベル付きで記録されることを検証する。
func TestRecordFallbackServed_Labels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFallbackServed("list_posts", "unconfigured")

	mf := findMetric(t, reg, "portfolio_fallback_served_total")
	if got := counterWithLabel(mf, "reason", "unconfigured"); got != 1 {
		t.Errorf("fallback = %v, want 1", got)
	}
}

// TestRecordSeedInserted_AddsCounts はシード件数が種類別に加算されることを検証する。
func TestRecordSeedInserted_AddsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSeedInserted(6, 3)

	mf := findMetric(t, reg, "portfolio_seed_inserted_total")
	if got := counterWithLabel(mf, "kind", "post"); got != 6 {
		t.Errorf("post = %v, want 6", got)
	}
	if got := counterWithLabel(mf, "kind", "comment"); got != 3 {
		t.Errorf("comment = %v, want 3", got)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findMetric(t, reg, "portfolio_http_status_total")
	if got := counterWithLabel(mf, "status_code", "200"); got != 2 {
		t.Errorf("status 200 = %v, want 2", got)
	}
	if got := counterWithLabel(mf, "status_code", "404"); got != 1 {
		t.Errorf("status 404 = %v, want 1", got)
	}
}

// TestMiddleware_RecordsStatusAndLatency はミドルウェアがステータスと処理時間を記録することを検証する。
func TestMiddleware_RecordsStatusAndLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	h := Middleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/comments", nil))

	// WriteHeaderを呼ばないハンドラーは200として記録される
	ok := Middleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	mf := findMetric(t, reg, "portfolio_http_status_total")
	if got := counterWithLabel(mf, "status_code", "201"); got != 1 {
		t.Errorf("status 201 = %v, want 1", got)
	}
	if got := counterWithLabel(mf, "status_code", "200"); got != 1 {
		t.Errorf("status 200 = %v, want 1", got)
	}

	latency := findMetric(t, reg, "portfolio_http_request_duration_seconds")
	if got := latency.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("latency sample count = %d, want 2", got)
	}
}

// TestNopCollector_DoesNotPanic はNopCollectorの全メソッドが安全に呼べることを検証する。
func TestNopCollector_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = NopCollector{}
	c.RecordPostSaved("create")
	c.RecordCommentAdded()
	c.RecordSubscription(true)
	c.RecordFallbackServed("x", "y")
	c.RecordSeedInserted(1, 1)
	c.RecordPostsImported(1, 1)
	c.RecordHTTPStatus(500)
	c.RecordRequestLatency(time.Second)
}
