package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func metricValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	if err := (<-ch).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func newRouter(mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func serve(h http.Handler, path string) {
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	r := newRouter(m.Handler)

	serve(r, "/items/1")
	serve(r, "/items/2")
	serve(r, "/fail")
	serve(r, "/missing")

	tests := []struct {
		route, code string
		want        float64
	}{
		{"/items/{id}", "202", 2},
		{"/fail", "500", 1},
		{"unmatched", "404", 1},
	}
	for _, tt := range tests {
		if got := metricValue(t, m.requestsTotal.WithLabelValues(tt.route, tt.code)); got != tt.want {
			t.Errorf("requests{%s,%s} = %v, want %v", tt.route, tt.code, got, tt.want)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, name := range []string{"test_inspect_requests_total", "test_inspect_request_duration_seconds"} {
		if !names[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.RecordEvent("click", nil)
	m.RecordEvent("click", errors.New("no node"))
	m.RecordFrames(3)
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.RecordWebSocketError("invalid_frame")

	if got := metricValue(t, m.eventsTotal.WithLabelValues("click", "ok")); got != 1 {
		t.Errorf("ok events = %v", got)
	}
	if got := metricValue(t, m.eventsTotal.WithLabelValues("click", "error")); got != 1 {
		t.Errorf("failed events = %v", got)
	}
	if got := metricValue(t, m.framesSent); got != 3 {
		t.Errorf("frames = %v", got)
	}
	if got := metricValue(t, m.activeClients); got != 1 {
		t.Errorf("clients = %v", got)
	}
	if got := metricValue(t, m.wsErrors.WithLabelValues("invalid_frame")); got != 1 {
		t.Errorf("ws errors = %v", got)
	}
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.RecordEvent("click", nil)
	m.RecordFrames(1)
	m.ClientConnected()
	m.ClientDisconnected()
	m.RecordWebSocketError("x")

	rec := httptest.NewRecorder()
	m.Handler(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

// recorder is a tracer provider keeping every span it starts.
type recorder struct {
	noop.TracerProvider
	mu    sync.Mutex
	spans []*span
}

func (p *recorder) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &tracer{p: p}
}

type tracer struct {
	noop.Tracer
	p *recorder
}

func (t *tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &span{name: name, attrs: map[attribute.Key]attribute.Value{}}
	s.SetAttributes(cfg.Attributes()...)
	t.p.mu.Lock()
	t.p.spans = append(t.p.spans, s)
	t.p.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type span struct {
	noop.Span
	name  string
	attrs map[attribute.Key]attribute.Value
	code  codes.Code
	ended bool
}

func (s *span) SetName(name string) { s.name = name }
func (s *span) End(...trace.SpanEndOption) { s.ended = true }
func (s *span) SetStatus(c codes.Code, _ string) { s.code = c }
func (s *span) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func TestOpenTelemetry(t *testing.T) {
	rec := &recorder{}
	r := newRouter(OpenTelemetry(
		WithTracerProvider(rec),
		WithRequestFilter(func(r *http.Request) bool { return r.URL.Path != "/skip" }),
		WithAttributeExtractor(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.query", r.URL.RawQuery)}
		}),
	))

	serve(r, "/items/7?x=1")
	serve(r, "/fail")
	serve(r, "/skip")

	if len(rec.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(rec.spans))
	}

	ok := rec.spans[0]
	if ok.name != "fibre.inspect GET /items/{id}" {
		t.Errorf("name = %q", ok.name)
	}
	if got := ok.attrs["http.route"].AsString(); got != "/items/{id}" {
		t.Errorf("http.route = %q", got)
	}
	if got := ok.attrs["http.status_code"].AsInt64(); got != http.StatusAccepted {
		t.Errorf("http.status_code = %d", got)
	}
	if got := ok.attrs["test.query"].AsString(); got != "x=1" {
		t.Errorf("test.query = %q", got)
	}
	if ok.code != codes.Ok || !ok.ended {
		t.Errorf("code = %v, ended = %v", ok.code, ok.ended)
	}

	if failed := rec.spans[1]; failed.code != codes.Error {
		t.Errorf("5xx span code = %v, want Error", failed.code)
	}
}
