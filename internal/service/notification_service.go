package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
	"github.com/impulso-give/impulso-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string, readAt time.Time) error
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error)
}

// NotificationService persists in-app notifications through a background
// queue so request handlers never block on fanout.
type NotificationService struct {
	repo   notificationStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its worker queue.
func NewNotificationService(repo notificationStore, logger *zap.Logger, workers, queueSize int) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{repo: repo, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.handleJob, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: queueSize,
		Logger:     logger,
	})
	return svc
}

// Start launches the background workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch enqueues a notification for asynchronous persistence.
func (s *NotificationService) Dispatch(ctx context.Context, notification models.Notification) error {
	if notification.UserID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "notification user is required")
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      notification.ID,
		Type:    string(notification.Type),
		Payload: notification,
	})
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		return fmt.Errorf("persist notification %s: %w", notification.ID, err)
	}
	return nil
}

// List returns the actor's notifications.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter, actor *models.JWTClaims) ([]models.Notification, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter.UserID = actor.UserID
	notifications, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount returns the actor's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *models.JWTClaims) (int, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.MarkRead(ctx, id, actor.UserID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification of the actor as read and
// returns how many were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *models.JWTClaims) (int, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}
	count, err := s.repo.MarkAllRead(ctx, actor.UserID, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return count, nil
}
