package api

import (
	"github.com/printproxy/console/internal/api/handler"
	"github.com/printproxy/console/internal/core/domain"
)

// Page names.
const (
	PageLogin     = "login"
	PageHome      = "home"
	PageDashboard = "dashboard"
	PagePrinters  = "printers"
	PageJobs      = "jobs"
	PageLogs      = "logs"
	PageAPIDocs   = "api-docs"
	PageNotFound  = "not-found"
)

// Pages is the console's route table, in menu order.
var Pages = []handler.Page{
	{Path: "/login", Name: PageLogin, Title: "Login", HideInMenu: true},
	{Path: "/", Name: PageHome, Title: "Home"},
	{Path: "/dashboard", Name: PageDashboard, Title: "Dashboard", Icon: "dashboard", RequiresAuth: true},
	{Path: "/printers", Name: PagePrinters, Title: "Printers", Icon: "printer", RequiresAuth: true, Permission: domain.PermPrinterView},
	{Path: "/jobs", Name: PageJobs, Title: "Print Jobs", Icon: "tasks", RequiresAuth: true, Permission: domain.PermJobView},
	{Path: "/logs", Name: PageLogs, Title: "Logs", Icon: "logs", RequiresAuth: true, Permission: domain.PermLogView},
	{Path: "/api-docs", Name: PageAPIDocs, Title: "API Docs", Icon: "api", RequiresAuth: true, Permission: domain.PermAPIDocsView},
	{Path: "/*", Name: PageNotFound, Title: "Page Not Found", HideInMenu: true},
}

func pageByName(name string) handler.Page {
	for _, p := range Pages {
		if p.Name == name {
			return p
		}
	}
	return handler.Page{Name: name}
}
