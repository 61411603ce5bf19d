package authcore

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{})

	m.Inc(MetricLoginSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	if m.Enabled() {
		t.Fatal("metrics should be disabled")
	}
	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot not empty: %+v", snap)
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRefreshFailure)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("login success = %d, want 2", got)
	}
	if got := m.Value(MetricRefreshFailure); got != 1 {
		t.Fatalf("refresh failure = %d, want 1", got)
	}
	if got := m.Value(MetricValidateSuccess); got != 0 {
		t.Fatalf("untouched counter = %d, want 0", got)
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricValidateSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricValidateSuccess); got != workers*perWorker {
		t.Fatalf("count = %d, want %d", got, workers*perWorker)
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	samples := []time.Duration{
		time.Microsecond,        // bucket 0
		50 * time.Microsecond,   // bucket 2
		700 * time.Microsecond,  // bucket 4
		100 * time.Millisecond,  // bucket 7
	}
	for _, d := range samples {
		m.Observe(MetricValidateLatency, d)
	}

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricValidateLatency]
	if !ok {
		t.Fatal("latency histogram missing from snapshot")
	}

	var total uint64
	for _, count := range buckets {
		total += count
	}
	if total != uint64(len(samples)) {
		t.Fatalf("histogram total = %d, want %d", total, len(samples))
	}
	if buckets[0] != 1 || buckets[2] != 1 || buckets[4] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected bucket spread: %v", buckets)
	}
}

func TestMetricsSnapshotIsDeepCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	snap.Counters[MetricLoginSuccess] = 999

	if m.Value(MetricLoginSuccess) != 1 {
		t.Fatal("snapshot mutation leaked into live counters")
	}
}

func TestEngineMetricsCoverOperations(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true

	store := newMockUserStore()
	engine, err := New().
		WithConfig(cfg).
		WithUserStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	seedAccount(t, engine, "alice", "correct horse battery")

	pair, err := engine.Login(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, _ = engine.Login(ctx, "alice", "wrong password")
	_, _ = engine.Validate(ctx, pair.AccessToken)
	_, _ = engine.Validate(ctx, "garbage")
	_, _ = engine.Refresh(ctx, pair.RefreshToken)
	_, _ = engine.Refresh(ctx, "garbage")
	_, _ = engine.CreateAccount(ctx, CreateAccountRequest{
		Username: "alice", FirstName: "A", LastName: "B", Password: "other password",
	})

	snap := engine.MetricsSnapshot()
	expect := map[MetricID]uint64{
		MetricAccountCreationSuccess:   1,
		MetricAccountCreationDuplicate: 1,
		MetricLoginSuccess:             1,
		MetricLoginFailure:             1,
		MetricValidateSuccess:          1,
		MetricValidateFailure:          1,
		MetricRefreshSuccess:           1,
		MetricRefreshFailure:           1,
	}
	for id, want := range expect {
		if got := snap.Counters[id]; got != want {
			t.Errorf("counter %d = %d, want %d", id, got, want)
		}
	}
}
