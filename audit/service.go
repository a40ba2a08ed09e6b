// Package audit records user mutations asynchronously.
package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize  = 1024
	batchSize  = 100
	flushEvery = 2 * time.Second

	// RequestKey is the gin context key a handler uses to attach its
	// decoded request body to the audit record.
	RequestKey = "audit_request"
)

// Entry holds one audit event to be logged.
type Entry struct {
	TraceID    string
	UserID     string
	Action     string
	Request    interface{}
	Error      string
	IP         string
	DurationMs int
}

// Service logs audit entries asynchronously in batches.
type Service struct {
	db      *gorm.DB
	ch      chan *model.AuditLog
	stopCh  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	dropped atomic.Int64
	logger  *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write. Entries are dropped, with
// a warning, when the queue is full or the service has stopped.
func (svc *Service) Log(entry Entry) {
	var req datatypes.JSON
	if entry.Request != nil {
		if b, err := json.Marshal(entry.Request); err == nil {
			req = datatypes.JSON(b)
		}
	}
	record := &model.AuditLog{
		TraceID:    entry.TraceID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		Request:    req,
		Error:      entry.Error,
		IP:         entry.IP,
		DurationMs: entry.DurationMs,
	}
	select {
	case <-svc.stopCh:
		svc.dropped.Add(1)
		return
	default:
	}
	select {
	case svc.ch <- record:
	default:
		svc.dropped.Add(1)
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action))
	}
}

// Dropped reports how many entries were discarded.
func (svc *Service) Dropped() int64 { return svc.dropped.Load() }

// Pending reports how many entries wait in the queue.
func (svc *Service) Pending() int { return len(svc.ch) }

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	svc.once.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed",
				zap.Int("entries", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Record returns a middleware that audits the wrapped route under action.
// Reads are not audited; only attach it to mutating routes.
func (svc *Service) Record(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := Entry{
			TraceID:    mw.GetTraceID(c),
			UserID:     mw.GetUserID(c),
			Action:     action,
			IP:         c.ClientIP(),
			DurationMs: int(time.Since(start).Milliseconds()),
		}
		if v, ok := c.Get(RequestKey); ok {
			entry.Request = v
		}
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			entry.Error = http.StatusText(status)
			if len(c.Errors) > 0 {
				entry.Error = c.Errors.Last().Error()
			}
		}
		svc.Log(entry)
	}
}
