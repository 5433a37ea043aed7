package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viva-esporte/arena-api/internal/models"
	"github.com/viva-esporte/arena-api/pkg/config"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
	"github.com/viva-esporte/arena-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

// NotificationService persists and delivers per-recipient notifications.
// Dispatch is asynchronous through a worker queue so enrollment requests
// never block on notification writes; persistence failures are retried
// by the queue and eventually logged, never surfaced to the caller.
type NotificationService struct {
	repo      notificationRepository
	cache     cacheStore
	queue     *jobs.Queue
	unreadTTL time.Duration
	logger    *zap.Logger
}

// NewNotificationService constructs the service and its worker queue.
// Call Start before dispatching and Stop on shutdown.
func NewNotificationService(repo notificationRepository, cache cacheStore, cfg config.NotificationsConfig, unreadTTL time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		repo:      repo,
		cache:     cache,
		unreadTTL: unreadTTL,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.Options{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch queues a notification for delivery. Falls back to a
// synchronous write when the queue is unavailable so no notification is
// silently dropped.
func (s *NotificationService) Dispatch(ctx context.Context, notification models.Notification) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Kind:    "notification.deliver",
		Payload: notification,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification queue unavailable, delivering inline", zap.Error(err))
		if err := s.deliver(ctx, job); err != nil {
			s.logger.Error("failed to deliver notification", zap.Error(err),
				zap.String("recipient_id", notification.RecipientID))
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, unreadCountKey(notification.RecipientID))
	}
	return nil
}

// ListForRecipient returns the recipient's notifications, newest first.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	notifications, err := s.repo.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flips one of the recipient's notifications to read.
func (s *NotificationService) MarkRead(ctx context.Context, id string, recipient *models.JWTClaims) error {
	if err := s.repo.MarkRead(ctx, id, actorID(recipient)); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if s.cache != nil {
		s.cache.Delete(ctx, unreadCountKey(actorID(recipient)))
	}
	return nil
}

// UnreadCount returns the recipient's unread total, cached briefly since
// the badge is polled far more often than it changes.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	key := unreadCountKey(recipientID)
	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}
	count, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.unreadTTL); err != nil {
			s.logger.Debug("failed to cache unread count", zap.Error(err))
		}
	}
	return count, nil
}

func unreadCountKey(recipientID string) string {
	return "notifications:unread:" + recipientID
}
