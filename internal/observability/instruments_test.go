package observability

import (
	"strings"
	"testing"
)

func TestCounterVecRendersLabels(t *testing.T) {
	c := NewCounterVec("tq_test_total", "help text", []string{"rule", "applied"})
	c.Inc("slow_concept", "true")
	c.Inc("slow_concept", "true")
	c.Inc("fast_learner", "false")

	var b strings.Builder
	if err := c.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `tq_test_total{rule="slow_concept",applied="true"} 2.000000`) {
		t.Fatalf("missing counted series:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE tq_test_total counter") {
		t.Fatalf("missing TYPE line:\n%s", out)
	}
}

func TestHistogramVecBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("tq_test_seconds", "help", []string{"status"}, []float64{0.1, 1})
	h.Observe(0.05, "200")
	h.Observe(0.5, "200")
	h.Observe(5, "200")

	var b strings.Builder
	if err := h.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `tq_test_seconds_bucket{status="200",le="0.1"} 1`) {
		t.Fatalf("le=0.1 bucket wrong:\n%s", out)
	}
	if !strings.Contains(out, `tq_test_seconds_bucket{status="200",le="1"} 2`) {
		t.Fatalf("le=1 bucket wrong:\n%s", out)
	}
	if !strings.Contains(out, `tq_test_seconds_bucket{status="200",le="+Inf"} 3`) {
		t.Fatalf("+Inf bucket wrong:\n%s", out)
	}
	if !strings.Contains(out, `tq_test_seconds_count{status="200"} 3`) {
		t.Fatalf("count wrong:\n%s", out)
	}
}

func TestLabelStringEscapesValues(t *testing.T) {
	got := labelString([]string{"route"}, []string{`/api/"plans"`})
	if !strings.Contains(got, `\"plans\"`) {
		t.Fatalf("quotes not escaped: %s", got)
	}
	if labelString(nil, nil) != "" {
		t.Fatalf("no labels should render empty")
	}
}

func TestMissingLabelValueFallsBackToUnknown(t *testing.T) {
	got := labelString([]string{"method", "route"}, []string{"GET"})
	if !strings.Contains(got, `route="unknown"`) {
		t.Fatalf("missing value should be unknown: %s", got)
	}
}
