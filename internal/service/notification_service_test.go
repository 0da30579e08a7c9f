package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
)

type notificationRepoStub struct {
	mu            sync.Mutex
	notifications []*models.Notification
	nextID        int
	failuresLeft  int
}

func (r *notificationRepoStub) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Notification
	for _, n := range r.notifications {
		if n.RecipientID != filter.RecipientID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		result = append(result, *n)
	}
	return result, len(result), nil
}

func (r *notificationRepoStub) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failuresLeft > 0 {
		r.failuresLeft--
		return fmt.Errorf("transient failure")
	}
	r.nextID++
	notification.ID = fmt.Sprintf("notif-%d", r.nextID)
	notification.CreatedAt = time.Now().UTC()
	stored := *notification
	r.notifications = append(r.notifications, &stored)
	return nil
}

func (r *notificationRepoStub) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepoStub) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (r *notificationRepoStub) Delete(ctx context.Context, id, recipientID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepoStub) DeleteAll(ctx context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.Notification
	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			count++
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
	return count, nil
}

func (r *notificationRepoStub) CountUnread(ctx context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepoStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifications)
}

type recipientsStub struct {
	ids []string
	err error
}

func (s *recipientsStub) ActiveIDs(ctx context.Context) ([]string, error) {
	return s.ids, s.err
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestNotificationService(repo *notificationRepoStub, recipients *recipientsStub) *NotificationService {
	return NewNotificationService(repo, recipients, nil, NotificationConfig{
		Workers:    2,
		BufferSize: 16,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	}, nil)
}

func TestNotificationServiceDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("sign-in notification is persisted asynchronously", func(t *testing.T) {
		repo := &notificationRepoStub{}
		svc := newTestNotificationService(repo, &recipientsStub{})
		svc.Start(ctx)
		defer svc.Stop()

		require.NoError(t, svc.NotifySignIn(ctx, "user-1", "Ana Cruz"))

		waitFor(t, func() bool { return repo.count() == 1 })
		list, _, err := svc.List(ctx, models.NotificationFilter{RecipientID: "user-1"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, models.NotificationActionSignIn, list[0].ActionType)
		require.False(t, list[0].Read)
	})

	t.Run("transient persistence failure is retried", func(t *testing.T) {
		repo := &notificationRepoStub{failuresLeft: 2}
		svc := newTestNotificationService(repo, &recipientsStub{})
		svc.Start(ctx)
		defer svc.Stop()

		require.NoError(t, svc.NotifyRegistration(ctx, "user-1", "Ana Cruz"))

		waitFor(t, func() bool { return repo.count() == 1 })
	})

	t.Run("period transition broadcasts to every active user", func(t *testing.T) {
		repo := &notificationRepoStub{}
		recipients := &recipientsStub{ids: []string{"user-1", "user-2", "user-3"}}
		svc := newTestNotificationService(repo, recipients)
		svc.Start(ctx)
		defer svc.Stop()

		previous := &models.AcademicPeriod{ID: "p-old", SchoolYear: "2024-2025", PeriodType: models.PeriodTypeSecondSemester}
		next := &models.AcademicPeriod{ID: "p-new", SchoolYear: "2025-2026", PeriodType: models.PeriodTypeFirstSemester}
		require.NoError(t, svc.NotifyPeriodTransition(ctx, previous, next))

		waitFor(t, func() bool { return repo.count() == 3 })
		for _, id := range recipients.ids {
			unread, err := svc.CountUnread(ctx, id)
			require.NoError(t, err)
			require.Equal(t, 1, unread)
		}

		// The message names the outgoing and incoming school years.
		notifications, _, err := svc.List(ctx, models.NotificationFilter{RecipientID: "user-1"})
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		require.Contains(t, notifications[0].Message, "2024-2025")
		require.Contains(t, notifications[0].Message, "2025-2026")
	})

	t.Run("recipient lookup failure surfaces", func(t *testing.T) {
		svc := newTestNotificationService(&notificationRepoStub{}, &recipientsStub{err: fmt.Errorf("db down")})
		svc.Start(ctx)
		defer svc.Stop()

		err := svc.NotifyPeriodTransition(ctx, nil, &models.AcademicPeriod{SchoolYear: "2025-2026", PeriodType: models.PeriodTypeFirstSemester})
		require.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	})
}

func TestNotificationServiceOwnership(t *testing.T) {
	ctx := context.Background()
	repo := &notificationRepoStub{}
	svc := newTestNotificationService(repo, &recipientsStub{})
	svc.Start(ctx)
	defer svc.Stop()

	require.NoError(t, svc.NotifySignIn(ctx, "user-1", "Ana Cruz"))
	waitFor(t, func() bool { return repo.count() == 1 })
	list, _, err := svc.List(ctx, models.NotificationFilter{RecipientID: "user-1"})
	require.NoError(t, err)
	id := list[0].ID

	t.Run("another recipient cannot mark it read", func(t *testing.T) {
		err := svc.MarkRead(ctx, id, "user-2")
		require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	})

	t.Run("another recipient cannot delete it", func(t *testing.T) {
		err := svc.Delete(ctx, id, "user-2")
		require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	})

	t.Run("owner marks and deletes", func(t *testing.T) {
		require.NoError(t, svc.MarkRead(ctx, id, "user-1"))
		unread, err := svc.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		require.Zero(t, unread)

		require.NoError(t, svc.Delete(ctx, id, "user-1"))
		require.Zero(t, repo.count())
	})
}

func TestNotificationServiceBulkOperations(t *testing.T) {
	ctx := context.Background()
	repo := &notificationRepoStub{}
	svc := newTestNotificationService(repo, &recipientsStub{})
	svc.Start(ctx)
	defer svc.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.NotifySignIn(ctx, "user-1", "Ana Cruz"))
	}
	require.NoError(t, svc.NotifySignIn(ctx, "user-2", "Ben Reyes"))
	waitFor(t, func() bool { return repo.count() == 4 })

	updated, err := svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, updated)

	deleted, err := svc.DeleteAll(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	// user-2 is untouched.
	unread, err := svc.CountUnread(ctx, "user-2")
	require.NoError(t, err)
	require.Equal(t, 1, unread)
}
