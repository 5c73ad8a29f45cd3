package services

import (
	"sync"
	"time"

	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccessEntry struct {
	FileID    uuid.UUID
	UserID    *uuid.UUID
	Action    string
	IPAddress string
	RequestID string
}

// AuditService writes access rows off the request path through a buffered
// channel. Recording never blocks a request; when the queue is full the
// entry is dropped with a warning. Close drains what is already queued.
type AuditService struct {
	DB    *gorm.DB
	queue chan models.AccessLog
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAuditService(db *gorm.DB, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	s := &AuditService{
		DB:    db,
		queue: make(chan models.AccessLog, queueSize),
		done:  make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func (s *AuditService) RecordAccess(entry AccessEntry) {
	row := models.AccessLog{
		FileID:    entry.FileID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		IPAddress: entry.IPAddress,
		RequestID: entry.RequestID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.Warn("access_log_after_close", map[string]interface{}{
			"file_id": entry.FileID.String(),
			"action":  entry.Action,
			"dropped": true,
		})
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("access_log_queue_full", map[string]interface{}{
			"file_id": entry.FileID.String(),
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

// Close stops intake and blocks until every queued row has been written.
// Safe to call more than once.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("access_log_insert_failed", err, map[string]interface{}{
				"file_id": row.FileID.String(),
				"action":  row.Action,
			})
		}
	}
}
