package models

import (
	"time"

	"github.com/google/uuid"
)

// Error report severities, as classified by the reporting client.
const (
	ReportSeverityInfo     = "info"
	ReportSeverityWarning  = "warning"
	ReportSeverityError    = "error"
	ReportSeverityCritical = "critical"
)

// ErrorReport is a client- or server-side error captured for the admin
// monitoring panel.
type ErrorReport struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Source    string     `db:"source" json:"source"`
	Message   string     `db:"message" json:"message"`
	Stack     string     `db:"stack" json:"stack,omitempty"`
	Severity  string     `db:"severity" json:"severity"`
	URL       string     `db:"url" json:"url,omitempty"`
	UserAgent string     `db:"user_agent" json:"user_agent,omitempty"`
	Resolved  bool       `db:"resolved" json:"resolved"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// RequestLog is one row of the asynchronous HTTP request audit trail.
type RequestLog struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Method    string     `db:"method" json:"method"`
	Path      string     `db:"path" json:"path"`
	Status    int        `db:"status" json:"status"`
	LatencyMS int64      `db:"latency_ms" json:"latency_ms"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	IP        string     `db:"ip" json:"ip"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
