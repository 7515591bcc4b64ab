package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type notificationRepoStub struct {
	mu            sync.Mutex
	notifications map[string]*models.Notification
}

func newNotificationRepoStub() *notificationRepoStub {
	return &notificationRepoStub{notifications: make(map[string]*models.Notification)}
}

func (s *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *notification
	s.notifications[notification.ID] = &clone
	return nil
}

func (s *notificationRepoStub) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Notification
	for _, n := range s.notifications {
		if n.UserID != filter.UserID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		result = append(result, *n)
	}
	return result, nil
}

func (s *notificationRepoStub) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *notificationRepoStub) MarkRead(ctx context.Context, id, userID string, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID || n.Read {
		return sql.ErrNoRows
	}
	n.Read = true
	n.ReadAt = &readAt
	return nil
}

func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &readAt
			count++
		}
	}
	return count, nil
}

func TestNotificationServiceDispatchPersists(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, nil, 1, 8)
	svc.Start(context.Background())
	defer svc.Stop()

	err := svc.Dispatch(context.Background(), models.Notification{
		UserID: "org-1",
		Type:   models.NotificationVerificationReceived,
		Title:  "Solicitud de verificación recibida",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		count, err := svc.UnreadCount(context.Background(), organizerClaims("org-1"))
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationServiceStopFlushesQueued(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, nil, 1, 8)
	svc.Start(context.Background())

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Dispatch(context.Background(), models.Notification{
			UserID: "org-1",
			Type:   models.NotificationVerificationReceived,
			Title:  "Solicitud de verificación recibida",
		}))
	}
	// Stop waits for the buffered dispatches, so nothing queued is lost.
	svc.Stop()

	count, err := svc.UnreadCount(context.Background(), organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestNotificationServiceDispatchRequiresUser(t *testing.T) {
	svc := NewNotificationService(newNotificationRepoStub(), nil, 1, 8)
	err := svc.Dispatch(context.Background(), models.Notification{Title: "x"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationServiceListScopedToActor(t *testing.T) {
	repo := newNotificationRepoStub()
	repo.notifications["n-1"] = &models.Notification{ID: "n-1", UserID: "org-1"}
	repo.notifications["n-2"] = &models.Notification{ID: "n-2", UserID: "org-2"}
	svc := NewNotificationService(repo, nil, 1, 8)

	// The filter's user is overridden by the authenticated actor.
	list, err := svc.List(context.Background(), models.NotificationFilter{UserID: "org-2"}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "n-1", list[0].ID)
}

func TestNotificationServiceMarkRead(t *testing.T) {
	repo := newNotificationRepoStub()
	repo.notifications["n-1"] = &models.Notification{ID: "n-1", UserID: "org-1"}
	svc := NewNotificationService(repo, nil, 1, 8)

	require.NoError(t, svc.MarkRead(context.Background(), "n-1", organizerClaims("org-1")))
	require.True(t, repo.notifications["n-1"].Read)

	// Already read, and not visible to other users.
	err := svc.MarkRead(context.Background(), "n-1", organizerClaims("org-1"))
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	err = svc.MarkRead(context.Background(), "n-1", organizerClaims("org-2"))
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	repo := newNotificationRepoStub()
	repo.notifications["n-1"] = &models.Notification{ID: "n-1", UserID: "org-1"}
	repo.notifications["n-2"] = &models.Notification{ID: "n-2", UserID: "org-1"}
	repo.notifications["n-3"] = &models.Notification{ID: "n-3", UserID: "org-2"}
	svc := NewNotificationService(repo, nil, 1, 8)

	count, err := svc.MarkAllRead(context.Background(), organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, 2, count)

	unread, err := svc.UnreadCount(context.Background(), organizerClaims("org-2"))
	require.NoError(t, err)
	require.Equal(t, 1, unread)
}
