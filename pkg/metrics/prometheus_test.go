package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordFormEvent("select", "ok")
	r.RecordFormEvent("select", "ok")
	r.RecordFormEvent("select", "rejected")
	r.RecordSubmission("DAILY", "ok")
	r.RecordPrediction("rate_limited")
	r.SetRealtimeClients(3)

	if got := testutil.ToFloat64(r.formEvents.WithLabelValues("select", "ok")); got != 2 {
		t.Fatalf("form events ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.formEvents.WithLabelValues("select", "rejected")); got != 1 {
		t.Fatalf("form events rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.submissions.WithLabelValues("DAILY", "ok")); got != 1 {
		t.Fatalf("submissions = %v", got)
	}
	if got := testutil.ToFloat64(r.predictions.WithLabelValues("rate_limited")); got != 1 {
		t.Fatalf("predictions = %v", got)
	}
	if got := testutil.ToFloat64(r.wsClients); got != 3 {
		t.Fatalf("ws clients = %v", got)
	}
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	// a second recorder on its own registry must not panic on registration
	NewWithRegisterer(prometheus.NewRegistry())
	NewWithRegisterer(prometheus.NewRegistry())
}
