package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

const auditBufferSize = 256

// AuditService records user actions after committed state transitions.
// Recording is fire-and-forget: a full buffer drops the entry with a warning
// and a failed insert is only logged. The request path never blocks on it.
type AuditService struct {
	auditRepo *repository.AuditRepository
	entries   chan domain.AuditEntry
	done      chan struct{}
}

func NewAuditService(auditRepo *repository.AuditRepository) *AuditService {
	s := &AuditService{
		auditRepo: auditRepo,
		entries:   make(chan domain.AuditEntry, auditBufferSize),
		done:      make(chan struct{}),
	}

	go s.writer()

	return s
}

func (s *AuditService) writer() {
	defer close(s.done)

	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.auditRepo.Insert(ctx, &entry); err != nil {
			log.Printf("warning: failed to write audit entry (%s by %s): %v", entry.Action, entry.UserID, err)
		}
		cancel()
	}
}

// RecordAction queues an audit entry. Never blocks, never returns an error.
func (s *AuditService) RecordAction(userID uuid.UUID, action domain.AuditAction, details string) {
	select {
	case s.entries <- domain.AuditEntry{UserID: userID, Action: action, Details: details}:
	default:
		log.Printf("warning: audit buffer full, dropping entry (%s by %s)", action, userID)
	}
}

// Close drains the queue and stops the writer. Called on shutdown.
func (s *AuditService) Close() {
	close(s.entries)
	<-s.done
}
