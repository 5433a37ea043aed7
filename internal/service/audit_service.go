package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type auditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}

// AuditService exposes the append-only activity log. Writes come from
// the other services; this surface is read-only.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs AuditService.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit log")
	}
	return entries, nil
}
