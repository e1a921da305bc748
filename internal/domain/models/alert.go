package models

import "time"

// AlertLevel grades how urgent an alert is.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// AlertType names the manifold event that triggered an alert.
type AlertType string

const (
	AlertSingularityDetected AlertType = "singularity_detected"
	AlertHighTension         AlertType = "high_tension"
	AlertEntropySpike        AlertType = "entropy_spike"
	AlertRicciFlowInitiated  AlertType = "ricci_flow_initiated"
	AlertAttractorReached    AlertType = "attractor_reached"
)

// Alert is one notable manifold event for downstream delivery.
type Alert struct {
	Type      AlertType              `json:"type"`
	Level     AlertLevel             `json:"level"`
	Symbol    string                 `json:"symbol"`
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
