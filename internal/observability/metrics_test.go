package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveSdConfigureRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("NewTopologyCollector: %v", err)
	}

	collector.ObserveSdConfigure("static", 2*time.Millisecond, nil)
	collector.ObserveSdConfigure("static", 1*time.Millisecond, nil)
	collector.ObserveSdConfigure("bundle", 3*time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(collector.SdConfigureRuns.WithLabelValues("static", "ok")); got != 2 {
		t.Fatalf("sd_configure_runs_total{static,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SdConfigureRuns.WithLabelValues("bundle", "error")); got != 1 {
		t.Fatalf("sd_configure_runs_total{bundle,error} = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "sd_configure_duration_seconds", map[string]string{
		"style": "static",
	}); count != 2 {
		t.Fatalf("sd_configure_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestMetricsHandlerExposesTopologyGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("NewTopologyCollector: %v", err)
	}
	collector.SetTopologyCounts(3, 4, 5, 6)
	collector.ObserveSdConfigure("bundle", time.Millisecond, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"sd_configure_runs_total",
		"sd_configure_duration_seconds",
		"topology_ecus",
		"topology_channels",
		"topology_sockets",
		"topology_pdus",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestNewTopologyCollectorIsIdempotentPerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("first NewTopologyCollector: %v", err)
	}
	second, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("second NewTopologyCollector: %v", err)
	}

	first.SdConfigureRuns.WithLabelValues("bundle", "ok").Inc()
	second.SdConfigureRuns.WithLabelValues("bundle", "ok").Inc()
	if got := testutil.ToFloat64(first.SdConfigureRuns.WithLabelValues("bundle", "ok")); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
