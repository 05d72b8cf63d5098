package notifier

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/logger"
)

// Webhook posts identity-creation events to a configured endpoint.
// Delivery is best-effort and fire-and-forget; a failed post is logged and
// never affects the resolution that triggered it.
type Webhook struct {
	client *resty.Client
	url    string
	logger *logger.Logger
}

// NewWebhook creates a webhook notifier. Returns nil when no URL is
// configured so callers can skip wiring it entirely.
func NewWebhook(url string, timeout time.Duration, log *logger.Logger) *Webhook {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")
	return &Webhook{
		client: client,
		url:    url,
		logger: log,
	}
}

type identityCreatedEvent struct {
	Event        string    `json:"event"`
	IdentityID   string    `json:"identity_id"`
	AppearanceID string    `json:"appearance_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NotifyIdentityCreated posts an identity_created event asynchronously.
func (w *Webhook) NotifyIdentityCreated(ctx context.Context, res *domain.Resolution) {
	event := identityCreatedEvent{
		Event:        "identity_created",
		IdentityID:   res.IdentityID,
		AppearanceID: res.AppearanceID,
		OccurredAt:   time.Now().UTC(),
	}

	go func() {
		resp, err := w.client.R().SetBody(event).Post(w.url)
		if err != nil {
			w.logger.WithField(logger.FieldIdentityID, res.IdentityID).
				WithError(err).Warn("Failed to deliver identity_created webhook")
			return
		}
		if resp.IsError() {
			w.logger.WithFields(logger.Fields{
				logger.FieldIdentityID: res.IdentityID,
				logger.FieldStatus:     resp.StatusCode(),
			}).Warn("identity_created webhook rejected")
		}
	}()
}
