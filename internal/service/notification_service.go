package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushq/records-api/pkg/config"
	"github.com/campushq/records-api/pkg/jobs"
	"github.com/campushq/records-api/pkg/mailer"
)

// Notifier dispatches templated notifications. Delivery is best-effort:
// domain flows never fail because a mail could not be sent.
type Notifier interface {
	Notify(event mailer.Event, recipient string, data map[string]string)
}

type notificationPayload struct {
	Event     mailer.Event
	Recipient string
	Data      map[string]string
}

// NotificationService fans notification events out to the mailer through a
// background worker queue.
type NotificationService struct {
	queue   *jobs.Dispatcher
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService wires the mailer behind an async dispatcher.
func NewNotificationService(m *mailer.Mailer, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, task jobs.Task) error {
		payload, ok := task.Payload.(notificationPayload)
		if !ok {
			return fmt.Errorf("unexpected notification payload type %T", task.Payload)
		}
		return m.Send(payload.Event, payload.Recipient, payload.Data)
	}

	queue := jobs.NewDispatcher("notifications", handler, jobs.Options{
		Workers: cfg.Workers,
		Logger:  logger,
	})

	return &NotificationService{queue: queue, logger: logger, enabled: cfg.Enabled}
}

// Start launches the notification workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Notify enqueues a notification. Failures are logged and swallowed.
func (s *NotificationService) Notify(event mailer.Event, recipient string, data map[string]string) {
	if !s.enabled || recipient == "" {
		return
	}
	err := s.queue.Submit(jobs.Task{
		ID:   uuid.NewString(),
		Kind: string(event),
		Payload: notificationPayload{
			Event:     event,
			Recipient: recipient,
			Data:      data,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}

// NopNotifier discards all notifications. Used in tests and when the
// dispatcher is disabled.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(mailer.Event, string, map[string]string) {}
