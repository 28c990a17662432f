package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that writes to repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record validates and persists a single session event.
func (s *auditService) Record(ctx context.Context, event domain.SessionEvent) error {
	if event.Kind == "" {
		return fmt.Errorf("record session event: missing kind")
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("record session event: %w", err)
	}

	s.log.Debug().
		Str("kind", string(event.Kind)).
		Str("email", event.Email).
		Str("method", event.Method).
		Msg("session event recorded")

	return nil
}
