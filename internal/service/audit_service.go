package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
)

type auditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// AuditService appends to and reads the audit trail.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService creates a new audit service instance.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an audit entry.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) error {
	if err := s.repo.Create(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit entry")
	}
	return nil
}

// History returns the newest audit entries for one resource.
func (s *AuditService) History(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	entries, err := s.repo.ListByResource(ctx, resource, resourceID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit history")
	}
	return entries, nil
}
