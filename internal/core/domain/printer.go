package domain

import "time"

// PrinterStatus is the reported state of a printer.
type PrinterStatus string

const (
	PrinterOnline  PrinterStatus = "online"
	PrinterOffline PrinterStatus = "offline"
	PrinterError   PrinterStatus = "error"
	PrinterBusy    PrinterStatus = "busy"
)

// Capabilities describes what a printer can do.
type Capabilities struct {
	ColorModes []string `json:"color_modes,omitempty"`
	MediaSizes []string `json:"media_sizes,omitempty"`
	Duplex     bool     `json:"duplex"`
	MaxDPI     int      `json:"max_dpi,omitempty"`
}

// Printer is the console's cached view of a backend printer.
type Printer struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Status       PrinterStatus `json:"status"`
	IsDefault    bool          `json:"is_default"`
	Location     string        `json:"location,omitempty"`
	Capabilities *Capabilities `json:"capabilities,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// PrinterInput carries create/update fields. Nil pointers are left untouched
// by updates.
type PrinterInput struct {
	Name      string         `json:"name,omitempty"`
	Status    *PrinterStatus `json:"status,omitempty"`
	IsDefault *bool          `json:"is_default,omitempty"`
	Location  *string        `json:"location,omitempty"`
}

// PrinterQuery filters a printer listing.
type PrinterQuery struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// PrinterTestResult is the backend's answer to a test print.
type PrinterTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
