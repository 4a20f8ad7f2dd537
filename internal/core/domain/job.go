package domain

import (
	"io"
	"time"
)

// JobStatus is the lifecycle state of a print job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobPrinting  JobStatus = "printing"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Active reports whether the job is still queued or printing.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobPrinting
}

// JobSettings holds the rendering options of a job.
type JobSettings struct {
	MediaSize      string `json:"media_size,omitempty"`
	ColorMode      string `json:"color_mode,omitempty"`
	Duplex         string `json:"duplex,omitempty"`
	DPI            int    `json:"dpi,omitempty"`
	FitMode        string `json:"fit_mode,omitempty"`
	AutoRotate     *bool  `json:"auto_rotate,omitempty"`
	EnhanceQuality *bool  `json:"enhance_quality,omitempty"`
}

// PrintJob is the console's cached view of a backend job.
type PrintJob struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	FileType     string      `json:"file_type"`
	Status       JobStatus   `json:"status"`
	Copies       int         `json:"copies"`
	Priority     int         `json:"priority"`
	PrinterID    int64       `json:"printer_id,omitempty"`
	PrinterName  string      `json:"printer_name,omitempty"`
	UserID       int64       `json:"user_id,omitempty"`
	Settings     JobSettings `json:"settings"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// JobSubmission is an upload of a document to print.
type JobSubmission struct {
	FileName  string
	File      io.Reader
	PrinterID int64
	Copies    int
	Priority  string
	Settings  *JobSettings
}

// JobQuery filters a job listing.
type JobQuery struct {
	Status    string
	PrinterID string
	UserID    string
	Search    string
	StartDate string
	EndDate   string
	Page      int
	PageSize  int
}

// Blob is a binary payload such as an export or a preview.
type Blob struct {
	ContentType string
	FileName    string
	Data        []byte
}
