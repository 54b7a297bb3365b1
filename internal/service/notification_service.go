package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/config"
	"github.com/JimEastburn/class-registration-system-sub001/pkg/jobs"
)

type notificationMetrics interface {
	ObserveNotificationFailure()
}

// NotificationService publishes enrollment events to the notification
// channel. Publication is fire-and-forget: enqueue and delivery failures are
// logged and counted, never propagated back into the admission flow.
type NotificationService struct {
	queue   *jobs.Dispatcher[models.NotificationEvent]
	client  *redis.Client
	channel string
	enabled bool
	metrics notificationMetrics
	logger  *zap.Logger
}

// NewNotificationService constructs the notifier. A nil redis client
// disables publication entirely, which keeps tests and degraded deployments
// working without a broker.
func NewNotificationService(client *redis.Client, cfg config.NotificationsConfig, metrics notificationMetrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		client:  client,
		channel: cfg.Channel,
		enabled: cfg.Enabled && client != nil,
		metrics: metrics,
		logger:  logger,
	}
	if s.enabled {
		s.queue = jobs.NewDispatcher("notifications", s.deliver, jobs.Config{
			Workers:    cfg.Workers,
			BufferSize: cfg.BufferSize,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		})
	}
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Publish enqueues an enrollment event for asynchronous delivery.
func (s *NotificationService) Publish(event models.NotificationEvent) {
	if !s.enabled {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(event); err != nil {
		s.observeFailure()
		s.logger.Warn("dropping enrollment notification",
			zap.String("event", string(event.Event)),
			zap.String("enrollment_id", event.EnrollmentID),
			zap.Error(err))
	}
}

func (s *NotificationService) observeFailure() {
	if s.metrics != nil {
		s.metrics.ObserveNotificationFailure()
	}
}

func (s *NotificationService) deliver(ctx context.Context, event models.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.observeFailure()
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
