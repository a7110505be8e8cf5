package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordSignIn_IncrementsCounter はサインインカウンタが遅刻区分別に増加することを検証する。
func TestRecordSignIn_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignIn(false)
	c.RecordSignIn(false)
	c.RecordSignIn(true)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() != "kintai_sign_in_total" {
			continue
		}
		found = true
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
		}
		for _, m := range mf.GetMetric() {
			late := m.GetLabel()[0].GetValue()
			val := m.GetCounter().GetValue()
			switch late {
			case "false":
				if val != 2 {
					t.Errorf("sign_in_total{late=false} = %v, want 2", val)
				}
			case "true":
				if val != 1 {
					t.Errorf("sign_in_total{late=true} = %v, want 1", val)
				}
			}
		}
	}
	if !found {
		t.Error("kintai_sign_in_total metric not found")
	}
}

// TestRecordSignOut_LabelsByMode はサインアウトカウンタが手動/自動で分類されることを検証する。
func TestRecordSignOut_LabelsByMode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignOut(false)
	c.RecordSignOut(true)
	c.RecordSignOut(true)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "kintai_sign_out_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			mode := m.GetLabel()[0].GetValue()
			val := m.GetCounter().GetValue()
			switch mode {
			case "manual":
				if val != 1 {
					t.Errorf("sign_out_total{mode=manual} = %v, want 1", val)
				}
			case "auto":
				if val != 2 {
					t.Errorf("sign_out_total{mode=auto} = %v, want 2", val)
				}
			}
		}
		return
	}
	t.Error("kintai_sign_out_total metric not found")
}

// TestRecordRejection_LabelsByCode は拒否カウンタがエラーコード別に増加することを検証する。
func TestRecordRejection_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRejection("LOCATION_OUT_OF_RANGE")
	c.RecordRejection("LOCATION_OUT_OF_RANGE")
	c.RecordRejection("ALREADY_SIGNED_IN")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "kintai_rejection_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
		}
		return
	}
	t.Error("kintai_rejection_total metric not found")
}

// TestRecordSweepClosed_AddsCount は走査クローズ数が加算されることを検証する。
func TestRecordSweepClosed_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSweepClosed(3)
	c.RecordSweepClosed(2)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "kintai_sweep_closed_total" {
			continue
		}
		val := mf.GetMetric()[0].GetCounter().GetValue()
		if val != 5 {
			t.Errorf("sweep_closed_total = %v, want 5", val)
		}
		return
	}
	t.Error("kintai_sweep_closed_total metric not found")
}

// TestRecordSweepDuration_ObservesHistogram は走査所要時間が記録されることを検証する。
func TestRecordSweepDuration_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSweepDuration(150 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "kintai_sweep_duration_seconds" {
			continue
		}
		count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
		if count != 1 {
			t.Errorf("sweep_duration sample count = %d, want 1", count)
		}
		return
	}
	t.Error("kintai_sweep_duration_seconds metric not found")
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSignIn(false)

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "kintai_sign_in_total") {
		t.Error("response should contain kintai_sign_in_total metric")
	}
}
