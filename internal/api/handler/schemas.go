package handler

import (
	"github.com/printproxy/console/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error    string              `json:"error"`
	Kind     string              `json:"kind,omitempty"`
	Fields   map[string][]string `json:"fields,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type sessionResponse struct {
	User        domain.User         `json:"user"`
	Role        domain.Role         `json:"role"`
	Permissions []domain.Permission `json:"permissions"`
	Remember    bool                `json:"remember"`
	Redirect    string              `json:"redirect,omitempty"`
}

type permissionsResponse struct {
	Authenticated bool                `json:"authenticated"`
	Role          domain.Role         `json:"role"`
	Permissions   []domain.Permission `json:"permissions"`
}

// --- Listings ---

type listResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

type printerListQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=online offline error busy"`
	Search   string `query:"search"`
	Page     int    `query:"page" validate:"gte=0"`
	PageSize int    `query:"page_size" validate:"gte=0,max=200"`
}

func (q printerListQuery) toDomain() domain.PrinterQuery {
	return domain.PrinterQuery{Status: q.Status, Search: q.Search, Page: q.Page, PageSize: q.PageSize}
}

type printerRequest struct {
	Name      string                `json:"name" validate:"required,max=100"`
	Status    *domain.PrinterStatus `json:"status,omitempty" validate:"omitempty,oneof=online offline error busy"`
	IsDefault *bool                 `json:"is_default,omitempty"`
	Location  *string               `json:"location,omitempty"`
}

type printerUpdateRequest struct {
	Name      string                `json:"name,omitempty" validate:"max=100"`
	Status    *domain.PrinterStatus `json:"status,omitempty" validate:"omitempty,oneof=online offline error busy"`
	IsDefault *bool                 `json:"is_default,omitempty"`
	Location  *string               `json:"location,omitempty"`
}

type jobListQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=pending printing completed failed cancelled"`
	PrinterID string `query:"printer_id"`
	UserID    string `query:"user_id"`
	Search    string `query:"search"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	Page      int    `query:"page" validate:"gte=0"`
	PageSize  int    `query:"page_size" validate:"gte=0,max=200"`
}

func (q jobListQuery) toDomain() domain.JobQuery {
	return domain.JobQuery{
		Status: q.Status, PrinterID: q.PrinterID, UserID: q.UserID, Search: q.Search,
		StartDate: q.StartDate, EndDate: q.EndDate, Page: q.Page, PageSize: q.PageSize,
	}
}

type jobSubmitForm struct {
	PrinterID int64  `form:"printer_id" validate:"required,gt=0"`
	Copies    int    `form:"copies" validate:"gte=0,max=999"`
	Priority  int    `form:"priority" validate:"omitempty,gte=1,lte=10"`
	Settings  string `form:"settings"`
}

type batchRequest struct {
	JobIDs []int64 `json:"job_ids" validate:"required,min=1,dive,gt=0"`
}

type logListQuery struct {
	Level     string `query:"level" validate:"omitempty,oneof=debug info warning error critical"`
	Type      string `query:"type" validate:"omitempty,oneof=system printer job auth api"`
	Source    string `query:"source"`
	Search    string `query:"search"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	UserID    string `query:"user_id"`
	PrinterID string `query:"printer_id"`
	JobID     string `query:"job_id"`
	Page      int    `query:"page" validate:"gte=0"`
	PageSize  int    `query:"page_size" validate:"gte=0,max=500"`
	Format    string `query:"format" validate:"omitempty,oneof=csv json txt"`
}

func (q logListQuery) toDomain() domain.LogQuery {
	return domain.LogQuery{
		Level: q.Level, Type: q.Type, Source: q.Source, Search: q.Search,
		StartDate: q.StartDate, EndDate: q.EndDate, UserID: q.UserID,
		PrinterID: q.PrinterID, JobID: q.JobID, Page: q.Page, PageSize: q.PageSize,
	}
}

type logClearRequest struct {
	OlderThan string `json:"older_than,omitempty"`
	Level     string `json:"level,omitempty" validate:"omitempty,oneof=debug info warning error critical"`
	Type      string `json:"type,omitempty" validate:"omitempty,oneof=system printer job auth api"`
}

type realTimeRequest struct {
	Enabled bool `json:"enabled"`
}

type realTimeResponse struct {
	Enabled bool `json:"enabled"`
}

type logHealthResponse struct {
	Health   domain.SystemHealth `json:"health"`
	Errors   int                 `json:"errors"`
	Warnings int                 `json:"warnings"`
	RealTime bool                `json:"real_time"`
}

type auditListQuery struct {
	Username  string `query:"username"`
	ErrorKind string `query:"kind"`
	Since     string `query:"since"`
	Limit     int    `query:"limit" validate:"gte=0,max=1000"`
}
