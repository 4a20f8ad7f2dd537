package domain

import "time"

// AuditEntry records an operator action or a surfaced upstream failure.
type AuditEntry struct {
	SessionID string    `json:"session_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Method    string    `json:"method,omitempty"`
	Path      string    `json:"path,omitempty"`
	Status    int       `json:"status,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditFilter narrows an audit listing. Zero values match everything.
type AuditFilter struct {
	Username  string
	ErrorKind ErrorKind
	Since     time.Time
	Limit     int
}
