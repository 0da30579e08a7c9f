package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
	"github.com/gadconnect/gadconnect-api/pkg/jobs"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	Delete(ctx context.Context, id, recipientID string) (bool, error)
	DeleteAll(ctx context.Context, recipientID string) (int, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

type notificationRecipients interface {
	ActiveIDs(ctx context.Context) ([]string, error)
}

const jobTypeNotification = "notification"

// NotificationConfig tunes the background dispatch queue.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NotificationService persists notifications and dispatches the ones produced
// as side effects of sign-ins, registrations, password resets, and period
// transitions. Dispatch goes through an in-memory queue so request handlers
// never block on notification writes.
type NotificationService struct {
	repo       notificationRepository
	recipients notificationRecipients
	queue      *jobs.Queue
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewNotificationService creates a notification service with its dispatch queue.
func NewNotificationService(repo notificationRepository, recipients notificationRecipients, metrics *MetricsService, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		repo:       repo,
		recipients: recipients,
		metrics:    metrics,
		logger:     logger,
	}
	s.queue = jobs.NewQueue(jobTypeNotification, s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}
	s.metrics.RecordNotificationDispatched()
	return nil
}

func (s *NotificationService) enqueue(notification *models.Notification) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeNotification,
		Payload: notification,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Sugar().Warnw("failed to enqueue notification",
			"recipient_id", notification.RecipientID,
			"action_type", notification.ActionType,
			"error", err,
		)
	}
}

// List returns paginated notifications for a recipient.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// CountUnread returns the unread badge count for a recipient.
func (s *NotificationService) CountUnread(ctx context.Context, recipientID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flips one notification to read. Ownership is enforced, so a
// recipient cannot touch another user's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	ok, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flips every unread notification of the recipient.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	count, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return count, nil
}

// Delete removes one notification owned by the recipient.
func (s *NotificationService) Delete(ctx context.Context, id, recipientID string) error {
	ok, err := s.repo.Delete(ctx, id, recipientID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// DeleteAll removes every notification of the recipient.
func (s *NotificationService) DeleteAll(ctx context.Context, recipientID string) (int, error) {
	count, err := s.repo.DeleteAll(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notifications")
	}
	return count, nil
}

// NotifySignIn records a sign-in notification for the user.
func (s *NotificationService) NotifySignIn(ctx context.Context, userID, fullName string) error {
	s.enqueue(&models.Notification{
		RecipientID: userID,
		ActionType:  models.NotificationActionSignIn,
		Title:       "New sign-in",
		Message:     fmt.Sprintf("%s signed in at %s", fullName, time.Now().UTC().Format(time.RFC3339)),
	})
	return nil
}

// NotifyRegistration welcomes a newly registered user.
func (s *NotificationService) NotifyRegistration(ctx context.Context, userID, fullName string) error {
	s.enqueue(&models.Notification{
		RecipientID: userID,
		ActionType:  models.NotificationActionRegistration,
		Title:       "Welcome to GADConnect",
		Message:     fmt.Sprintf("Account for %s has been created", fullName),
	})
	return nil
}

// NotifyPasswordReset records a password reset notification for the user.
func (s *NotificationService) NotifyPasswordReset(ctx context.Context, userID string) error {
	s.enqueue(&models.Notification{
		RecipientID: userID,
		ActionType:  models.NotificationActionPasswordReset,
		Title:       "Password reset",
		Message:     "Your password was reset. Contact an administrator if this was not you.",
	})
	return nil
}

// NotifyPeriodTransition broadcasts the transition to every active user. The
// message names both periods so recipients can tell what was archived.
func (s *NotificationService) NotifyPeriodTransition(ctx context.Context, previous, next *models.AcademicPeriod) error {
	ids, err := s.recipients.ActiveIDs(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve notification recipients")
	}
	message := fmt.Sprintf("Academic period %s %s is now active.", next.SchoolYear, next.PeriodType)
	if previous != nil {
		message = fmt.Sprintf("Academic period %s → %s: the %s period is now active. Records of %s were archived.",
			previous.SchoolYear, next.SchoolYear, next.PeriodType, previous.SchoolYear)
	}
	for _, id := range ids {
		s.enqueue(&models.Notification{
			RecipientID: id,
			ActionType:  models.NotificationActionPeriodTransition,
			Title:       "Academic period transition",
			Message:     message,
		})
	}
	return nil
}
