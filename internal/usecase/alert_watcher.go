package usecase

import (
	"context"
	"sync"
	"time"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
	"ManifoldPulse/internal/service/alerts"
	applogger "ManifoldPulse/pkg/logger"
)

const maxAlertHistory = 1000

// AlertWatcher periodically re-analyzes watched symbols and fans
// notable events out to the registered sinks. A per symbol+type
// cooldown suppresses repeat alerts while a condition persists.
type AlertWatcher struct {
	uc       *ManifoldUseCase
	sinks    []domrepo.AlertSink
	symbols  []string
	interval time.Duration
	cooldown time.Duration
	l        *applogger.Logger

	mu        sync.Mutex
	history   []*models.Alert
	lastFired map[string]time.Time
	stopCh    chan struct{}
	started   bool
}

func NewAlertWatcher(
	uc *ManifoldUseCase,
	sinks []domrepo.AlertSink,
	symbols []string,
	interval, cooldown time.Duration,
	l *applogger.Logger,
) *AlertWatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AlertWatcher{
		uc:        uc,
		sinks:     sinks,
		symbols:   symbols,
		interval:  interval,
		cooldown:  cooldown,
		l:         l,
		lastFired: make(map[string]time.Time),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the monitoring loop.
func (w *AlertWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

// Stop halts the monitoring loop.
func (w *AlertWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.started = false
	close(w.stopCh)
}

func (w *AlertWatcher) sweep(ctx context.Context) {
	for _, symbol := range w.symbols {
		res, err := w.uc.Analyze(ctx, AnalyzeParams{
			Symbol:    symbol,
			Interval:  domrepo.IV1m,
			Limit:     100,
			Timescale: domrepo.ScaleDaily,
		})
		if err != nil {
			w.l.Warn("alert sweep failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			continue
		}
		for _, a := range alerts.AnalyzeMetrics(symbol, res.Metrics) {
			w.Trigger(ctx, a)
		}
	}
}

// Trigger records an alert and notifies every sink, honoring cooldown.
func (w *AlertWatcher) Trigger(ctx context.Context, a *models.Alert) {
	key := a.Symbol + ":" + string(a.Type)

	w.mu.Lock()
	if w.cooldown > 0 {
		if last, ok := w.lastFired[key]; ok && time.Since(last) < w.cooldown {
			w.mu.Unlock()
			return
		}
	}
	w.lastFired[key] = time.Now()
	w.history = append(w.history, a)
	if len(w.history) > maxAlertHistory {
		w.history = w.history[len(w.history)-maxAlertHistory:]
	}
	w.mu.Unlock()

	for _, sink := range w.sinks {
		if err := sink.Deliver(ctx, a); err != nil {
			w.l.Warn("alert sink failed",
				applogger.String("symbol", a.Symbol),
				applogger.String("type", string(a.Type)),
				applogger.Error(err),
			)
		}
	}
}

// RecentAlerts returns recent alerts newest-first, optionally filtered
// by symbol.
func (w *AlertWatcher) RecentAlerts(symbol string, limit int) []*models.Alert {
	if limit <= 0 {
		limit = 50
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*models.Alert, 0, limit)
	for i := len(w.history) - 1; i >= 0 && len(out) < limit; i-- {
		a := w.history[i]
		if symbol != "" && a.Symbol != symbol {
			continue
		}
		out = append(out, a)
	}
	return out
}
