package http

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
)

func TestMetrics_RecordDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordDecision(gate.Decision{Action: gate.Forward, Reason: gate.ReasonForwarded}, 10*time.Millisecond)
	m.RecordDecision(gate.Decision{Action: gate.Forward, Reason: gate.ReasonRouteFailed}, time.Millisecond)
	m.RecordDecision(gate.Decision{Action: gate.Passthrough, Reason: gate.ReasonMailFailed}, time.Millisecond)
	m.RecordDecision(gate.Decision{Action: gate.Passthrough, Reason: gate.ReasonNotAway}, time.Millisecond)
	m.RecordDecision(gate.Decision{Action: gate.Passthrough, Reason: gate.ReasonNotAway}, time.Millisecond)

	if got := testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("forward", "forwarded")); got != 1 {
		t.Errorf("decisions{forward,forwarded} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("passthrough", "not_away")); got != 2 {
		t.Errorf("decisions{passthrough,not_away} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.MailFailures); got != 1 {
		t.Errorf("mail failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RouteFailures); got != 1 {
		t.Errorf("route failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.EvaluationDuration); got != 1 {
		t.Errorf("evaluation duration series = %d, want 1", got)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	h := MetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/v1/intercept", "/v1/intercept", "/missing", "/health", "/metrics"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/intercept", "2xx")); got != 2 {
		t.Errorf("requests{/v1/intercept,2xx} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("other", "4xx")); got != 1 {
		t.Errorf("requests{other,4xx} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.RequestsTotal); got != 2 {
		t.Errorf("request series = %d, want 2 (health and metrics skipped)", got)
	}
}

func TestMetricsMiddleware_UnknownPathsBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := NewHTTPTransport(nil, WithLogger(discardLogger()), WithMetrics(m, reg)).Handler()

	for i := 0; i < 50; i++ {
		path := "/scan/" + strconv.Itoa(i)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.CollectAndCount(m.RequestsTotal); got != 1 {
		t.Errorf("request series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("other", "4xx")); got != 50 {
		t.Errorf("requests{other,4xx} = %v, want 50", got)
	}
	if got := testutil.CollectAndCount(m.RequestDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordDecision(gate.Decision{Action: gate.Forward, Reason: gate.ReasonForwarded}, time.Millisecond)

	h := NewHTTPTransport(nil, WithLogger(discardLogger()), WithMetrics(m, reg)).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `awaymail_decisions_total{action="forward",reason="forwarded"} 1`) {
		t.Errorf("metrics output missing decision counter:\n%s", rec.Body.String())
	}
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 204: "2xx", 400: "4xx", 413: "4xx", 503: "5xx"} {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
