package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ManifoldPulse/internal/domain/models"
)

type nopMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *nopMetrics) RecordMessageSent(string, string) {}
func (m *nopMetrics) RecordLastPrice(string, float64)  {}
func (m *nopMetrics) RecordLatency(string, float64)    {}
func (m *nopMetrics) RecordPhase(string, string)       {}
func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}

func (m *nopMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type recordingProc struct {
	mu    sync.Mutex
	ticks []*models.Tick
	err   error
}

func (p *recordingProc) Process(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = append(p.ticks, t)
	return p.err
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

func validTick() *models.Tick {
	return &models.Tick{Symbol: "BTCUSDT", Timestamp: 1700000000, Price: 100, Volume: 1}
}

func TestValidateTick(t *testing.T) {
	if err := validateTick(validTick()); err != nil {
		t.Fatalf("valid tick rejected: %v", err)
	}
	bad := []*models.Tick{
		nil,
		{Timestamp: 1, Price: 1},      // empty symbol
		{Symbol: "BTCUSDT", Price: 1}, // zero timestamp
		{Symbol: "BTCUSDT", Timestamp: 1, Price: -1},  // negative price
		{Symbol: "BTCUSDT", Timestamp: 1, Volume: -1}, // negative volume
	}
	for i, tick := range bad {
		if err := validateTick(tick); err == nil {
			t.Fatalf("case %d: invalid tick accepted", i)
		}
	}
}

func TestPipelineForwardsValidTicks(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, &nopMetrics{})

	if err := p.Process(context.Background(), validTick()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("forwarded %d ticks, want 1", proc.count())
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &recordingProc{}
	m := &nopMetrics{}
	p := NewRealtimePipeline(proc, m)

	if err := p.Process(context.Background(), &models.Tick{}); err == nil {
		t.Fatal("invalid tick passed validation")
	}
	if proc.count() != 0 {
		t.Fatal("invalid tick reached downstream")
	}
	if m.errCount("pipeline_validate") != 1 {
		t.Fatalf("validate errors = %d", m.errCount("pipeline_validate"))
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	m := &nopMetrics{}
	p := NewRealtimePipeline(proc, m, WithMaxRPS(1))

	// Two ticks in quick succession: the second is dropped silently.
	if err := p.Process(context.Background(), validTick()); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if err := p.Process(context.Background(), validTick()); err != nil {
		t.Fatalf("throttled tick returned error: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("forwarded %d ticks, want 1", proc.count())
	}
	if m.errCount("pipeline_throttle") == 0 {
		t.Fatal("throttle not recorded")
	}

	// A different symbol has its own window.
	other := validTick()
	other.Symbol = "ETHUSDT"
	if err := p.Process(context.Background(), other); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("forwarded %d ticks, want 2", proc.count())
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{err: errors.New("kafka down")}
	p := NewRealtimePipeline(proc, &nopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), validTick()); err == nil {
		t.Fatal("downstream error swallowed")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffer depth = %d, want 1", len(p.bufCh))
	}
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, &nopMetrics{},
		WithTransform(func(t *models.Tick) *models.Tick {
			t.Symbol = "BTCUSDT"
			return t
		}))

	in := validTick()
	in.Symbol = "btcusdt"
	if err := p.Process(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.ticks[0].Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q", proc.ticks[0].Symbol)
	}
}

func TestPipelineStartFlushesBuffer(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, &nopMetrics{}, WithBufferSize(4))
	p.bufCh <- validTick()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered tick never flushed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
