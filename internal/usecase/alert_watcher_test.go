package usecase

import (
	"context"
	"testing"
	"time"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
)

type recordingSink struct {
	delivered []*models.Alert
}

func (s *recordingSink) Deliver(_ context.Context, a *models.Alert) error {
	s.delivered = append(s.delivered, a)
	return nil
}

func testAlert(symbol string, typ models.AlertType) *models.Alert {
	return &models.Alert{
		Type:      typ,
		Level:     models.AlertWarning,
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Message:   "test",
	}
}

func TestTriggerCooldownSuppressesRepeats(t *testing.T) {
	sink := &recordingSink{}
	w := NewAlertWatcher(nil, []domrepo.AlertSink{sink}, nil, time.Minute, time.Minute, nil)

	ctx := context.Background()
	w.Trigger(ctx, testAlert("BTCUSDT", models.AlertHighTension))
	w.Trigger(ctx, testAlert("BTCUSDT", models.AlertHighTension))
	if len(sink.delivered) != 1 {
		t.Fatalf("delivered %d, want 1 (cooldown)", len(sink.delivered))
	}

	// Different type and different symbol each get their own cooldown key.
	w.Trigger(ctx, testAlert("BTCUSDT", models.AlertEntropySpike))
	w.Trigger(ctx, testAlert("ETHUSDT", models.AlertHighTension))
	if len(sink.delivered) != 3 {
		t.Fatalf("delivered %d, want 3", len(sink.delivered))
	}
}

func TestTriggerZeroCooldownAlwaysFires(t *testing.T) {
	sink := &recordingSink{}
	w := NewAlertWatcher(nil, []domrepo.AlertSink{sink}, nil, time.Minute, 0, nil)

	ctx := context.Background()
	w.Trigger(ctx, testAlert("BTCUSDT", models.AlertHighTension))
	w.Trigger(ctx, testAlert("BTCUSDT", models.AlertHighTension))
	if len(sink.delivered) != 2 {
		t.Fatalf("delivered %d, want 2", len(sink.delivered))
	}
}

func TestRecentAlertsNewestFirstAndFiltered(t *testing.T) {
	w := NewAlertWatcher(nil, nil, nil, time.Minute, 0, nil)

	ctx := context.Background()
	w.Trigger(ctx, testAlert("BTCUSDT", models.AlertHighTension))
	w.Trigger(ctx, testAlert("ETHUSDT", models.AlertEntropySpike))
	w.Trigger(ctx, testAlert("BTCUSDT", models.AlertRicciFlowInitiated))

	all := w.RecentAlerts("", 10)
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Type != models.AlertRicciFlowInitiated {
		t.Fatalf("newest first violated: %v", all[0].Type)
	}

	btc := w.RecentAlerts("BTCUSDT", 10)
	if len(btc) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(btc))
	}
	for _, a := range btc {
		if a.Symbol != "BTCUSDT" {
			t.Fatalf("filter leaked %q", a.Symbol)
		}
	}

	if got := w.RecentAlerts("", 1); len(got) != 1 {
		t.Fatalf("limit ignored, len = %d", len(got))
	}
}
