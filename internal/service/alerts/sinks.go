package alerts

import (
	"context"
	"fmt"

	"ManifoldPulse/internal/domain/models"
	domrepo "ManifoldPulse/internal/domain/repository"
	httpclient "ManifoldPulse/pkg/http"
	applogger "ManifoldPulse/pkg/logger"
	"ManifoldPulse/pkg/queue"
)

// ConsoleSink logs alerts through the structured logger.
type ConsoleSink struct {
	l *applogger.Logger
}

func NewConsoleSink(l *applogger.Logger) *ConsoleSink { return &ConsoleSink{l: l} }

func (s *ConsoleSink) Deliver(ctx context.Context, a *models.Alert) error {
	fields := []applogger.Field{
		applogger.String("type", string(a.Type)),
		applogger.String("symbol", a.Symbol),
		applogger.String("level", string(a.Level)),
	}
	switch a.Level {
	case models.AlertCritical:
		s.l.Error(a.Message, fields...)
	case models.AlertWarning:
		s.l.Warn(a.Message, fields...)
	default:
		s.l.Info(a.Message, fields...)
	}
	return nil
}

// WebhookSink posts alerts as JSON to a webhook URL.
type WebhookSink struct {
	client *httpclient.Client
	url    string
}

func NewWebhookSink(client *httpclient.Client, url string) *WebhookSink {
	return &WebhookSink{client: client, url: url}
}

func (s *WebhookSink) Deliver(ctx context.Context, a *models.Alert) error {
	if s.url == "" {
		return nil
	}
	err := s.client.SendAndParse(ctx, &httpclient.RequestOptions{
		Method: httpclient.MethodPost,
		URL:    s.url,
		Body:   a,
	}, nil)
	if err != nil {
		return fmt.Errorf("webhook deliver: %w", err)
	}
	return nil
}

// QueueSink enqueues alerts for asynchronous webhook delivery with
// retries handled by the queue workers.
type QueueSink struct {
	q queue.QueueService
}

func NewQueueSink(q queue.QueueService) *QueueSink { return &QueueSink{q: q} }

func (s *QueueSink) Deliver(ctx context.Context, a *models.Alert) error {
	return s.q.PublishMessage(ctx, WebhookJobType, a)
}

var (
	_ domrepo.AlertSink = (*ConsoleSink)(nil)
	_ domrepo.AlertSink = (*WebhookSink)(nil)
	_ domrepo.AlertSink = (*QueueSink)(nil)
)
