package domain

import "time"

type LogLevel string

const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarning  LogLevel = "warning"
	LevelError    LogLevel = "error"
	LevelCritical LogLevel = "critical"
)

// LogLevels in ascending severity.
var LogLevels = []LogLevel{LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical}

type LogType string

const (
	LogSystem  LogType = "system"
	LogPrinter LogType = "printer"
	LogJob     LogType = "job"
	LogAuth    LogType = "auth"
	LogAPI     LogType = "api"
)

var LogTypes = []LogType{LogSystem, LogPrinter, LogJob, LogAuth, LogAPI}

// LogEntry is one backend log record. The correlation ids are optional.
type LogEntry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      LogLevel       `json:"level"`
	Type       LogType        `json:"type"`
	Source     string         `json:"source,omitempty"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Username   string         `json:"username,omitempty"`
	PrinterID  string         `json:"printer_id,omitempty"`
	JobID      string         `json:"job_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	DurationMs int64          `json:"duration,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
}

// LogQuery filters a log listing.
type LogQuery struct {
	Level     string
	Type      string
	Source    string
	Search    string
	StartDate string
	EndDate   string
	UserID    string
	PrinterID string
	JobID     string
	Page      int
	PageSize  int
}

// LogClearFilter selects which entries the backend should drop.
type LogClearFilter struct {
	OlderThan string `json:"older_than,omitempty"`
	Level     string `json:"level,omitempty"`
	Type      string `json:"type,omitempty"`
}

type SystemHealth string

const (
	HealthHealthy  SystemHealth = "healthy"
	HealthWarning  SystemHealth = "warning"
	HealthCritical SystemHealth = "critical"
)

// LogStats is the backend's aggregate view.
type LogStats struct {
	Total        int              `json:"total"`
	ByLevel      map[LogLevel]int `json:"by_level"`
	ByType       map[LogType]int  `json:"by_type"`
	RecentErrors int              `json:"recent_errors"`
	SystemHealth SystemHealth     `json:"system_health"`
}
