package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const auditBufferSize = 256

// RequestAuditor writes request audit rows asynchronously so that the hot
// path never waits on the database. Rows are dropped, with a warning, when
// the buffer is full.
type RequestAuditor struct {
	requests interfaces.RequestLogRepository
	entries  chan models.RequestLog
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

// NewRequestAuditor creates and starts the auditor's writer goroutine.
func NewRequestAuditor(requests interfaces.RequestLogRepository, logger *zap.Logger) *RequestAuditor {
	a := &RequestAuditor{
		requests: requests,
		entries:  make(chan models.RequestLog, auditBufferSize),
		done:     make(chan struct{}),
		logger:   logger.Named("RequestAuditor"),
	}
	go a.run()
	return a
}

func (a *RequestAuditor) run() {
	for entry := range a.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.requests.Create(ctx, &entry); err != nil {
			a.logger.Warn("Failed to write request audit row", zap.Error(err), zap.String("path", entry.Path))
		}
		cancel()
	}
	close(a.done)
}

func (a *RequestAuditor) record(entry models.RequestLog) {
	select {
	case a.entries <- entry:
	default:
		a.logger.Warn("Request audit buffer full, dropping entry", zap.String("path", entry.Path))
	}
}

// Close stops accepting entries and waits for the buffered ones to flush.
func (a *RequestAuditor) Close() {
	a.once.Do(func() {
		close(a.entries)
		<-a.done
	})
}

// RequestLogger logs every request with zap and feeds the audit trail.
// Health and metrics probes are skipped.
func RequestLogger(log *zap.Logger, auditor *RequestAuditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		requestID := c.Writer.Header().Get("X-Request-ID")
		if requestID == "" {
			requestID = c.GetHeader("X-Request-ID")
		}
		if requestID == "" {
			requestID = uuid.NewString()
			c.Header("X-Request-ID", requestID)
		}
		fields = append(fields, zap.String("request_id", requestID))

		if len(c.Errors) > 0 {
			for _, ginErr := range c.Errors.ByType(gin.ErrorTypeAny) {
				log.Error("Request error", append(fields, zap.Error(ginErr.Err))...)
			}
		} else {
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("Server error", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("Client error", fields...)
			default:
				log.Info("Request completed", fields...)
			}
		}

		if auditor != nil {
			entry := models.RequestLog{
				Method:    c.Request.Method,
				Path:      path,
				Status:    status,
				LatencyMS: latency.Milliseconds(),
				IP:        c.ClientIP(),
			}
			if raw, ok := c.Get("user_id"); ok {
				if id, ok := raw.(uuid.UUID); ok {
					entry.UserID = &id
				}
			}
			auditor.record(entry)
		}
	}
}
