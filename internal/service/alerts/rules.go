package alerts

import (
	"fmt"
	"math"
	"time"

	"ManifoldPulse/internal/domain/models"
)

// Rule thresholds for notable manifold events.
const (
	HighTensionThreshold  = 1.5
	EntropySpikeThreshold = 7.0
	RicciFlowThreshold    = 0.5
	AttractorProximityPct = 1.0
)

// AnalyzeMetrics inspects a metrics snapshot and returns the alerts it
// warrants. The rules fire independently; one snapshot can produce
// several alerts.
func AnalyzeMetrics(symbol string, m *models.ManifoldMetrics) []*models.Alert {
	var alerts []*models.Alert
	now := time.Now().UTC()

	if len(m.Singularities) > 0 {
		alerts = append(alerts, &models.Alert{
			Type:      models.AlertSingularityDetected,
			Level:     models.AlertCritical,
			Symbol:    symbol,
			Timestamp: now,
			Message:   fmt.Sprintf("Singularity detected! %d extreme tension points found.", len(m.Singularities)),
			Data: map[string]interface{}{
				"count":     len(m.Singularities),
				"indices":   m.Singularities,
				"timescale": m.Timescale,
			},
		})
	}

	if n := len(m.Tension); n > 0 {
		tension := m.Tension[n-1]
		if math.Abs(tension) > HighTensionThreshold {
			alerts = append(alerts, &models.Alert{
				Type:      models.AlertHighTension,
				Level:     models.AlertWarning,
				Symbol:    symbol,
				Timestamp: now,
				Message:   fmt.Sprintf("High tension detected: %.2f. Correction may be imminent.", tension),
				Data: map[string]interface{}{
					"tension":   tension,
					"threshold": HighTensionThreshold,
				},
			})
		}
	}

	if n := len(m.LocalEntropy); n > 0 {
		entropy := m.LocalEntropy[n-1]
		if entropy > EntropySpikeThreshold {
			alerts = append(alerts, &models.Alert{
				Type:      models.AlertEntropySpike,
				Level:     models.AlertWarning,
				Symbol:    symbol,
				Timestamp: now,
				Message:   fmt.Sprintf("High entropy detected: %.2f. Market is chaotic.", entropy),
				Data: map[string]interface{}{
					"entropy":   entropy,
					"threshold": EntropySpikeThreshold,
				},
			})
		}
	}

	if n := len(m.RicciFlow); n > 0 {
		magnitude := math.Abs(m.RicciFlow[n-1])
		if magnitude > RicciFlowThreshold {
			alerts = append(alerts, &models.Alert{
				Type:      models.AlertRicciFlowInitiated,
				Level:     models.AlertInfo,
				Symbol:    symbol,
				Timestamp: now,
				Message:   fmt.Sprintf("Ricci flow detected. Manifold is smoothing (magnitude: %.2f).", magnitude),
				Data: map[string]interface{}{
					"magnitude": magnitude,
				},
			})
		}
	}

	price := m.LastPrice()
	if a, ok := m.NearestAttractor(price); ok && price != 0 {
		distancePct := math.Abs(a.Price-price) / price * 100
		if distancePct < AttractorProximityPct {
			alerts = append(alerts, &models.Alert{
				Type:      models.AlertAttractorReached,
				Level:     models.AlertInfo,
				Symbol:    symbol,
				Timestamp: now,
				Message:   fmt.Sprintf("Price approaching attractor at $%.2f", a.Price),
				Data: map[string]interface{}{
					"attractor_price": a.Price,
					"current_price":   price,
					"distance_pct":    distancePct,
				},
			})
		}
	}

	return alerts
}
