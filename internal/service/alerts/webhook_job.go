package alerts

import (
	"context"

	"ManifoldPulse/internal/domain/models"
	"ManifoldPulse/pkg/queue"
)

// WebhookJobType is the queue message type for alert webhook delivery.
const WebhookJobType = "alert_webhook"

// WebhookDeliveryJob drains queued alerts and posts them to the
// configured webhook. Failed deliveries follow the queue's retry and
// dead-letter policy.
type WebhookDeliveryJob struct {
	sink *WebhookSink
}

func NewWebhookDeliveryJob(sink *WebhookSink) *WebhookDeliveryJob {
	return &WebhookDeliveryJob{sink: sink}
}

func (j *WebhookDeliveryJob) Name() string { return "alert_webhook_delivery" }

func (j *WebhookDeliveryJob) Type() string { return WebhookJobType }

func (j *WebhookDeliveryJob) Handle(ctx context.Context, payload interface{}) error {
	alert, err := queue.ParsePayload[models.Alert](payload)
	if err != nil {
		return err
	}
	return j.sink.Deliver(ctx, alert)
}

var _ queue.Job = (*WebhookDeliveryJob)(nil)
