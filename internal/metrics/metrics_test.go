package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.IngestionDone("indexed")
	m.IngestionDone("indexed")
	m.IngestionDone("failed")
	m.Answered(PathFallback)

	if got := testutil.ToFloat64(m.ingestions.WithLabelValues("indexed")); got != 2 {
		t.Errorf("indexed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ingestions.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.answers.WithLabelValues(PathFallback)); got != 1 {
		t.Errorf("fallback = %v, want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Answered(PathLLM)
	m.ObserveLLM("chat", 120*time.Millisecond, nil)
	m.ObserveLLM("models", time.Millisecond, errors.New("refused"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	for _, want := range []string{
		`kotae_answers_total{path="llm"} 1`,
		`kotae_llm_request_duration_seconds_count{op="chat",result="ok"} 1`,
		`kotae_llm_request_duration_seconds_count{op="models",result="error"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IngestionDone("indexed")
	m.Answered(PathError)
	m.ObserveLLM("chat", time.Second, nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("nil handler status = %d, want 404", rec.Code)
	}
}
